package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// InferAnswerTypes fills in a missing answerType: more than one correct answer
// makes a question multiple choice, otherwise it is single choice.
func InferAnswerTypes(cfg *GameConfig) {
	for i := range cfg.Questions {
		q := &cfg.Questions[i]
		if q.AnswerType != "" {
			continue
		}
		if len(q.CorrectIndices()) > 1 {
			q.AnswerType = AnswerMultiple
		} else {
			q.AnswerType = AnswerSingle
		}
	}
}

var validate = validator.New()

// Validate checks the config against the strict schema sessions require.
// Field rules live in the validate tags; the correct-answer count depends on
// answerType and is checked by hand.
func (c GameConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %v", ErrMalformedConfig, err)
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrMalformedConfig, strings.Join(msgs, ", "))
	}
	for i, q := range c.Questions {
		if err := q.checkCorrectCount(); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrMalformedConfig, i+1, err)
		}
	}
	return nil
}

func (q Question) checkCorrectCount() error {
	correct := len(q.CorrectIndices())
	if q.AnswerType == AnswerSingle && correct != 1 {
		return fmt.Errorf("single choice needs exactly one correct answer, has %d", correct)
	}
	if q.AnswerType == AnswerMultiple && correct == 0 {
		return fmt.Errorf("multiple choice needs at least one correct answer")
	}
	return nil
}
