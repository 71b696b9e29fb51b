package domain

import (
	"errors"
	"testing"
)

func TestParseCallbackAnswer(t *testing.T) {
	action, err := ParseCallback(AnswerToken(42, 2))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	answer, ok := action.(AnswerSelected)
	if !ok {
		t.Fatalf("action = %T, want AnswerSelected", action)
	}
	if answer.QuestionID != 42 || answer.Option != 2 {
		t.Fatalf("decoded = %+v", answer)
	}
}

func TestParseCallbackExplanation(t *testing.T) {
	action, err := ParseCallback(ExplanationToken(7))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	exp, ok := action.(ExplanationRequested)
	if !ok {
		t.Fatalf("action = %T, want ExplanationRequested", action)
	}
	if exp.QuestionID != 7 {
		t.Fatalf("decoded = %+v", exp)
	}
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{
		"",
		"answer_",
		"answer_x_1",
		"answer_5_9", // option out of range
		"answer_5_-1",
		"explanation_abc",
		"poll_5",
	} {
		if _, err := ParseCallback(data); !errors.Is(err, ErrUnknownCallback) {
			t.Fatalf("ParseCallback(%q) err = %v, want ErrUnknownCallback", data, err)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	if got := AnswerToken(123, 0); got != "answer_123_0" {
		t.Fatalf("token = %q", got)
	}
	if got := ExplanationToken(123); got != "explanation_123" {
		t.Fatalf("token = %q", got)
	}
}
