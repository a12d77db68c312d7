package practice

import (
	"fmt"
	"time"

	"github.com/verte-zerg/vocadrill/internal/model"
	"github.com/verte-zerg/vocadrill/internal/scoring"
)

// Settings configures one practice session. It is validated once by Start.
type Settings struct {
	// Shuffle randomises the word order at start.
	Shuffle bool
	// Limit caps the number of words; 0 keeps all.
	Limit int
	// Scoring grades typed and dictated answers.
	Scoring scoring.Mode
	// StrictMode keeps case when grading.
	StrictMode bool
	// ShowAnswer reveals the expected answer after a wrong verdict.
	ShowAnswer bool
	// AutoNext moves to the next word AutoNextDelay after an answer.
	AutoNext      bool
	AutoNextDelay time.Duration
	// AutoCorrect offers the expected text for near misses.
	AutoCorrect bool
	// TimeLimit per question; expiry counts as a skip. 0 disables it.
	TimeLimit time.Duration
	// AskFields are shown as the prompt; AnswerField is what the learner
	// produces. HintFields are revealed on request.
	AskFields   []model.Field
	AnswerField model.Field
	HintFields  []model.Field
	// Choices is the number of options in quiz mode.
	Choices int
}

// Defaults.
const (
	DefaultAutoNextDelay = 1500 * time.Millisecond
	DefaultChoices       = 4
	maxChoices           = 8
	maxTimeLimit         = 10 * time.Minute
)

// DefaultSettings returns the settings each mode starts from.
func DefaultSettings(mode model.Mode) Settings {
	s := Settings{
		Shuffle:       true,
		Scoring:       scoring.Exact,
		ShowAnswer:    true,
		AutoNextDelay: DefaultAutoNextDelay,
		AnswerField:   model.FieldWord,
		Choices:       DefaultChoices,
	}
	switch mode {
	case model.ModeFlashcard:
		s.AskFields = []model.Field{model.FieldWord}
		s.AnswerField = model.FieldDefinition
		s.HintFields = []model.Field{model.FieldExample}
	case model.ModeQuiz:
		s.AskFields = []model.Field{model.FieldDefinition}
		s.AutoNext = true
	case model.ModeTyping:
		s.AskFields = []model.Field{model.FieldDefinition, model.FieldTranslation}
		s.HintFields = []model.Field{model.FieldExample, model.FieldPhonetic}
		s.Scoring = scoring.Lenient
		s.AutoCorrect = true
	case model.ModeDictation:
		s.AskFields = []model.Field{model.FieldPhonetic}
		s.HintFields = []model.Field{model.FieldDefinition}
		s.Scoring = scoring.Lenient
	}
	return s
}

// Validate checks ranges and field names.
func (s Settings) Validate() error {
	if s.Limit < 0 {
		return fmt.Errorf("limit must be >= 0")
	}
	if _, err := scoring.ParseMode(string(s.Scoring)); err != nil {
		return err
	}
	if s.AutoNextDelay < 0 {
		return fmt.Errorf("auto-next delay must be >= 0")
	}
	if s.TimeLimit < 0 || s.TimeLimit > maxTimeLimit {
		return fmt.Errorf("time limit must be between 0 and %s", maxTimeLimit)
	}
	if s.Choices < 2 || s.Choices > maxChoices {
		return fmt.Errorf("choices must be between 2 and %d", maxChoices)
	}
	if _, err := model.ParseField(string(s.AnswerField)); err != nil {
		return fmt.Errorf("answer field: %w", err)
	}
	for _, f := range append(append([]model.Field(nil), s.AskFields...), s.HintFields...) {
		if _, err := model.ParseField(string(f)); err != nil {
			return err
		}
		if f == s.AnswerField {
			return fmt.Errorf("field %q cannot be both asked and answered", f)
		}
	}
	return nil
}
