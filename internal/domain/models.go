package domain

import (
	"fmt"
	"time"
)

// User holds lifetime counters for one Telegram user. Created on the first
// recorded answer and mutated on every one after that; never deleted.
type User struct {
	ID                int64
	Username          string
	FirstName         string
	QuestionsAnswered int
	CorrectAnswers    int
	Points            int
	Accuracy          float64
	LastActivity      time.Time
	RegisteredAt      time.Time
}

// DisplayName picks the friendliest available name for rankings and replies.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("User_%d", u.ID)
}

// AnswerEvent is the immutable record of a single answer attempt. The count
// and recency of events per (user, question) pair drive cooldown decisions.
type AnswerEvent struct {
	ID         int64
	UserID     int64
	QuestionID int64
	Selected   int
	Correct    int
	IsCorrect  bool
	Points     int
	AnsweredAt time.Time
}

// Standing is one row of a ranked leaderboard view.
type Standing struct {
	DisplayName       string  `json:"displayName"`
	Points            int     `json:"points"`
	QuestionsAnswered int     `json:"questionsAnswered"`
	Accuracy          float64 `json:"accuracy"`
}

// HelpTicket records one interaction with the help bot.
type HelpTicket struct {
	UserID    int64
	Username  string
	Command   string
	CreatedAt time.Time
}

// Question models one MCQ with exactly four options. JSON tags match the
// quiz content file format.
type Question struct {
	ID           int64    `json:"id"`
	Prompt       string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_answer"`
	Explanation  string   `json:"explanation"`
}

// QuizBatch is a fixed, ordered group of questions posted together as one
// scheduled unit. Batches are read-only to the core.
type QuizBatch struct {
	ID        int64      `json:"batch_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// FindQuestion scans batches for a question by id.
func FindQuestion(batches []QuizBatch, questionID int64) (Question, bool) {
	for i := range batches {
		for j := range batches[i].Questions {
			if batches[i].Questions[j].ID == questionID {
				return batches[i].Questions[j], true
			}
		}
	}
	return Question{}, false
}
