// Package catalog contains the read-only course topology consumed by the
// certification core: courses, modules, lessons, quizzes, and question
// answer keys. Authoring and ownership validation live in a separate
// subsystem; nothing in this repository mutates catalog data.
package catalog

import (
	"github.com/google/uuid"
)

// DefaultPassingScorePercent applies when a quiz does not specify its own
// passing score.
const DefaultPassingScorePercent = 60

// Course is the root of the topology: course → modules → lessons.
type Course struct {
	ID          uuid.UUID
	Title       string
	Description string
}

// Module groups lessons inside a course.
type Module struct {
	ID         uuid.UUID
	CourseID   uuid.UUID
	Title      string
	OrderIndex int
}

// Lesson is the unit of completion tracked by the progress store.
type Lesson struct {
	ID         uuid.UUID
	ModuleID   uuid.UUID
	Title      string
	OrderIndex int
}

// Quiz metadata relevant to grading and eligibility.
type Quiz struct {
	ID                  uuid.UUID
	CourseID            uuid.UUID
	Title               string
	PassingScorePercent int  // 0 means unset; grading applies DefaultPassingScorePercent
	Mandatory           bool // mandatory quizzes gate certification
}

// PassingScore returns the effective passing threshold for this quiz.
func (q *Quiz) PassingScore() int {
	if q.PassingScorePercent <= 0 {
		return DefaultPassingScorePercent
	}
	return q.PassingScorePercent
}

// Option is a selectable answer on a question.
type Option struct {
	ID      uuid.UUID
	Text    string
	Correct bool
}

// Question carries its answer key. Authoring guarantees exactly one option
// is flagged correct; grading tolerates deviations by matching any option
// flagged correct.
type Question struct {
	ID      uuid.UUID
	QuizID  uuid.UUID
	Text    string
	Options []Option
}

// IsCorrectOption reports whether the given option id is flagged correct.
func (q *Question) IsCorrectOption(optionID uuid.UUID) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID && opt.Correct {
			return true
		}
	}
	return false
}

// CorrectOptionID returns the id of the first option flagged correct, or
// uuid.Nil when none is. Used for answer detail in graded results.
func (q *Question) CorrectOptionID() uuid.UUID {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return uuid.Nil
}
