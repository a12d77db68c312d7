package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// diffRunes marks each expected rune against the rune typed at the same
// position. Typed runes past the end of the answer are appended as extras.
func diffRunes(expected, input []rune, strict bool) []styledRune {
	out := make([]styledRune, 0, max(len(expected), len(input)))
	for i, target := range expected {
		displayed := target
		style := pendingStyle
		if i < len(input) {
			switch {
			case target == ' ' && input[i] != ' ':
				displayed = '•'
				style = incorrectStyle
			case sameRune(input[i], target, strict):
				style = correctStyle
			default:
				style = incorrectStyle
			}
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: target == ' ',
		})
	}
	if len(input) > len(expected) {
		for _, r := range input[len(expected):] {
			out = append(out, styledRune{
				s:       extraStyle.Render(string(r)),
				width:   runewidth.RuneWidth(r),
				isSpace: r == ' ',
			})
		}
	}
	return out
}

func sameRune(a, b rune, strict bool) bool {
	if strict {
		return a == b
	}
	return unicode.ToLower(a) == unicode.ToLower(b)
}

// plainRunes styles every rune of s the same way so it can be wrapped.
func plainRunes(s string, style lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

// wrapText word-wraps s to width terminal cells.
func wrapText(s string, width int, style lipgloss.Style) string {
	return wrapStyledRunes(plainRunes(s, style), width)
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
