package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// PlotPercent draws series of 0-100 values as a braille chart. Each cell is
// 2 dots wide and 4 dots tall, so a width of w cells shows 2w samples.
func PlotPercent(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	var visible []Series
	for _, s := range series {
		if len(s.Values) > 0 {
			visible = append(visible, s)
		}
	}
	if len(visible) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	canvas := newCanvas(width, height, len(visible))
	for si, s := range visible {
		values := resample(s.Values, width*2)
		prevX, prevY := -1, -1
		for x, v := range values {
			y := percentToDot(v, height*4)
			if prevX < 0 {
				canvas.set(si, x, y)
			} else {
				drawLine(prevX, prevY, x, y, func(px, py int) { canvas.set(si, px, py) })
			}
			prevX, prevY = x, y
		}
	}

	useColor := shouldUseColor(w, forceColor)
	lines := []string{}
	if title != "" {
		lines = append(lines, title)
	}
	axisWidth := runewidth.StringWidth(axisLabelTop)
	for y := 0; y < height; y++ {
		label := ""
		switch {
		case y == 0:
			label = axisLabelTop
		case y == height-1:
			label = axisLabelBottom
		case y == height/2:
			label = axisLabelMid
		}
		var row strings.Builder
		row.WriteString(strings.Repeat(" ", axisWidth-runewidth.StringWidth(label)) + label + axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := canvas.cell(x, y)
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				row.WriteString(colorPalette[owner%len(colorPalette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		lines = append(lines, row.String())
	}
	legend := make([]string, len(visible))
	for i, s := range visible {
		last := s.Values[len(s.Values)-1]
		legend[i] = fmt.Sprintf("%s (last %.0f%%)", s.Name, last)
		if useColor {
			legend[i] = colorPalette[i%len(colorPalette)] + legend[i] + colorReset
		}
	}
	lines = append(lines, "Legend: "+strings.Join(legend, "  "), "")
	return writeLines(w, lines)
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axis := runewidth.StringWidth(axisLabelTop) + runewidth.StringWidth(axisSeparator)
	return max(totalWidth-axis, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// canvas keeps one braille mask grid per series so overlapping lines can be
// coloured by the first series that touches a cell.
type canvas struct {
	width, height int
	layers        [][]uint8
}

func newCanvas(width, height, layers int) *canvas {
	c := &canvas{width: width, height: height, layers: make([][]uint8, layers)}
	for i := range c.layers {
		c.layers[i] = make([]uint8, width*height)
	}
	return c
}

// brailleBits maps a dot at (x%2, y%4) to its bit in the braille block.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(layer, dotX, dotY int) {
	cx, cy := dotX/2, dotY/4
	if dotX < 0 || dotY < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.layers[layer][cy*c.width+cx] |= brailleBits[dotX%2][dotY%4]
}

func (c *canvas) cell(x, y int) (uint8, int) {
	var mask uint8
	owner := -1
	for i, layer := range c.layers {
		m := layer[y*c.width+x]
		if m == 0 {
			continue
		}
		if owner < 0 {
			owner = i
		}
		mask |= m
	}
	return mask, owner
}

// percentToDot maps 100 to the top dot row and 0 to the bottom one.
func percentToDot(v float64, rows int) int {
	v = math.Max(0, math.Min(100, v))
	return int(math.Round((1 - v/100) * float64(rows-1)))
}

// resample stretches or averages values onto n points.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == 1:
		for i := range out {
			out[i] = values[0]
		}
	case len(values) > n:
		for i := range out {
			start := i * len(values) / n
			end := max((i+1)*len(values)/n, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	default:
		for i := range out {
			pos := float64(i) * float64(len(values)-1) / float64(max(n-1, 1))
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// drawLine walks a Bresenham line between two dots.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
