// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - each event represents something significant that
// happened in the certification flow.
const (
	// Progress events
	EventLessonCompleted EventType = "progress.lesson_completed"

	// Quiz events
	EventAttemptStarted   EventType = "quiz.attempt_started"
	EventAttemptSubmitted EventType = "quiz.attempt_submitted"

	// Certificate events
	EventCertificateIssued       EventType = "certificate.issued"
	EventCertificateRendered     EventType = "certificate.rendered"
	EventCertificateRenderFailed EventType = "certificate.render_failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a student completes a lesson for the
// first time. Repeated completions of the same lesson do not emit.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID    string    `json:"lesson_id"`
	StudentID   string    `json:"student_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id":    e.LessonID,
		"student_id":   e.StudentID,
		"completed_at": e.CompletedAt.Format(time.RFC3339),
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(lessonID, studentID string, completedAt time.Time) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:   NewBaseEvent(EventLessonCompleted, lessonID),
		LessonID:    lessonID,
		StudentID:   studentID,
		CompletedAt: completedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quiz Events
// ═══════════════════════════════════════════════════════════════════════════

// AttemptStartedEvent is emitted when a student starts a quiz attempt.
type AttemptStartedEvent struct {
	BaseEvent
	AttemptID string `json:"attempt_id"`
	QuizID    string `json:"quiz_id"`
	StudentID string `json:"student_id"`
	MaxScore  int    `json:"max_score"`
}

// Payload implements Event interface.
func (e AttemptStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"attempt_id": e.AttemptID,
		"quiz_id":    e.QuizID,
		"student_id": e.StudentID,
		"max_score":  e.MaxScore,
	}
}

// NewAttemptStartedEvent creates a new AttemptStartedEvent.
func NewAttemptStartedEvent(attemptID, quizID, studentID string, maxScore int) AttemptStartedEvent {
	return AttemptStartedEvent{
		BaseEvent: NewBaseEvent(EventAttemptStarted, attemptID),
		AttemptID: attemptID,
		QuizID:    quizID,
		StudentID: studentID,
		MaxScore:  maxScore,
	}
}

// AttemptSubmittedEvent is emitted when an attempt is graded and becomes
// terminal. Exactly one is emitted per attempt.
type AttemptSubmittedEvent struct {
	BaseEvent
	AttemptID  string  `json:"attempt_id"`
	QuizID     string  `json:"quiz_id"`
	StudentID  string  `json:"student_id"`
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// Payload implements Event interface.
func (e AttemptSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"attempt_id": e.AttemptID,
		"quiz_id":    e.QuizID,
		"student_id": e.StudentID,
		"score":      e.Score,
		"max_score":  e.MaxScore,
		"percentage": e.Percentage,
		"passed":     e.Passed,
	}
}

// NewAttemptSubmittedEvent creates a new AttemptSubmittedEvent.
func NewAttemptSubmittedEvent(attemptID, quizID, studentID string, score, maxScore int, percentage float64, passed bool) AttemptSubmittedEvent {
	return AttemptSubmittedEvent{
		BaseEvent:  NewBaseEvent(EventAttemptSubmitted, attemptID),
		AttemptID:  attemptID,
		QuizID:     quizID,
		StudentID:  studentID,
		Score:      score,
		MaxScore:   maxScore,
		Percentage: percentage,
		Passed:     passed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Certificate Events
// ═══════════════════════════════════════════════════════════════════════════

// CertificateIssuedEvent is emitted when a certificate row is created.
// It is not emitted when Generate returns an already-existing certificate.
type CertificateIssuedEvent struct {
	BaseEvent
	CertificateID    string  `json:"certificate_id"`
	CourseID         string  `json:"course_id"`
	StudentID        string  `json:"student_id"`
	VerificationCode string  `json:"verification_code"`
	CompletionRate   float64 `json:"completion_rate"`
}

// Payload implements Event interface.
func (e CertificateIssuedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"certificate_id":    e.CertificateID,
		"course_id":         e.CourseID,
		"student_id":        e.StudentID,
		"verification_code": e.VerificationCode,
		"completion_rate":   e.CompletionRate,
	}
}

// NewCertificateIssuedEvent creates a new CertificateIssuedEvent.
func NewCertificateIssuedEvent(certificateID, courseID, studentID, code string, completionRate float64) CertificateIssuedEvent {
	return CertificateIssuedEvent{
		BaseEvent:        NewBaseEvent(EventCertificateIssued, certificateID),
		CertificateID:    certificateID,
		CourseID:         courseID,
		StudentID:        studentID,
		VerificationCode: code,
		CompletionRate:   completionRate,
	}
}

// CertificateRenderedEvent is emitted once the PDF for a certificate has
// been rendered and its storage path recorded.
type CertificateRenderedEvent struct {
	BaseEvent
	CertificateID string `json:"certificate_id"`
	PDFPath       string `json:"pdf_path"`
}

// Payload implements Event interface.
func (e CertificateRenderedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"certificate_id": e.CertificateID,
		"pdf_path":       e.PDFPath,
	}
}

// NewCertificateRenderedEvent creates a new CertificateRenderedEvent.
func NewCertificateRenderedEvent(certificateID, pdfPath string) CertificateRenderedEvent {
	return CertificateRenderedEvent{
		BaseEvent:     NewBaseEvent(EventCertificateRendered, certificateID),
		CertificateID: certificateID,
		PDFPath:       pdfPath,
	}
}

// CertificateRenderFailedEvent is emitted when PDF rendering fails.
// The certificate itself is already durable; the render retry job picks
// these certificates up later.
type CertificateRenderFailedEvent struct {
	BaseEvent
	CertificateID string `json:"certificate_id"`
	Reason        string `json:"reason"`
}

// Payload implements Event interface.
func (e CertificateRenderFailedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"certificate_id": e.CertificateID,
		"reason":         e.Reason,
	}
}

// NewCertificateRenderFailedEvent creates a new CertificateRenderFailedEvent.
func NewCertificateRenderFailedEvent(certificateID, reason string) CertificateRenderFailedEvent {
	return CertificateRenderFailedEvent{
		BaseEvent:     NewBaseEvent(EventCertificateRenderFailed, certificateID),
		CertificateID: certificateID,
		Reason:        reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Publisher / Subscriber
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish publishes an event to all subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all event types.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NoopPublisher discards all events. Used when event publishing is disabled.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
