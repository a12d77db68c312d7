package practice

import (
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
)

// Choices builds up to n quiz options for target: the correct value of field
// plus distractors drawn from pool, deduplicated case-insensitively and
// shuffled. It returns the options and the index of the correct one, or
// (nil, -1) when target has no value for field.
func Choices(target model.Word, pool []model.Word, field model.Field, n int, rnd *rand.Rand) ([]string, int) {
	want := target.FieldValue(field)
	if want == "" || n < 1 {
		return nil, -1
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	seen := map[string]struct{}{strings.ToLower(want): {}}
	var distractors []string
	for _, i := range rnd.Perm(len(pool)) {
		w := pool[i]
		if w.ID == target.ID {
			continue
		}
		v := w.FieldValue(field)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		distractors = append(distractors, v)
		if len(distractors) == n-1 {
			break
		}
	}

	options := append([]string{want}, distractors...)
	rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	for i, o := range options {
		if o == want {
			return options, i
		}
	}
	return options, 0
}
