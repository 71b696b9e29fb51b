package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CallbackAction is the decoded form of an inbound button token. The adapter
// parses tokens into one of these variants before anything reaches the engine.
type CallbackAction interface {
	isCallbackAction()
}

// AnswerSelected means the user clicked one of the four option buttons.
type AnswerSelected struct {
	QuestionID int64
	Option     int
}

// ExplanationRequested means the user asked for a question's explanation.
type ExplanationRequested struct {
	QuestionID int64
}

func (AnswerSelected) isCallbackAction()       {}
func (ExplanationRequested) isCallbackAction() {}

// AnswerToken encodes an answer selection as a callback token.
func AnswerToken(questionID int64, option int) string {
	return fmt.Sprintf("answer_%d_%d", questionID, option)
}

// ExplanationToken encodes an explanation request as a callback token.
func ExplanationToken(questionID int64) string {
	return fmt.Sprintf("explanation_%d", questionID)
}

// ParseCallback decodes a raw token into a typed variant.
func ParseCallback(token string) (CallbackAction, error) {
	switch {
	case strings.HasPrefix(token, "answer_"):
		parts := strings.Split(token, "_")
		if len(parts) != 3 {
			return nil, ErrUnknownCallback
		}
		questionID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCallback
		}
		option, err := strconv.Atoi(parts[2])
		if err != nil || option < 0 || option > 3 {
			return nil, ErrUnknownCallback
		}
		return AnswerSelected{QuestionID: questionID, Option: option}, nil
	case strings.HasPrefix(token, "explanation_"):
		questionID, err := strconv.ParseInt(strings.TrimPrefix(token, "explanation_"), 10, 64)
		if err != nil {
			return nil, ErrUnknownCallback
		}
		return ExplanationRequested{QuestionID: questionID}, nil
	default:
		return nil, ErrUnknownCallback
	}
}
