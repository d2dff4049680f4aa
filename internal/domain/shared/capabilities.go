package shared

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time. Injected so that time-dependent logic
// (completion timestamps, issuance timestamps) is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Test double.
type FixedClock struct {
	Instant time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.Instant
}

// IDGenerator produces opaque unique identifiers for new entities.
type IDGenerator interface {
	NewID() uuid.UUID
}

// CodeGenerator produces candidate certificate verification codes.
// Candidates are not guaranteed unique; the issuer checks uniqueness
// against the store and asks for another candidate on collision.
type CodeGenerator interface {
	NewCode() string
}

// UUIDGenerator is the production IDGenerator backed by random UUIDs.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() uuid.UUID {
	return uuid.New()
}

// NewCode implements CodeGenerator: the first 8 hex characters of a fresh
// random UUID, uppercased.
func (UUIDGenerator) NewCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:VerificationCodeLength])
}

// SequenceIDGenerator returns a fixed sequence of ids, then falls back to
// random ones. Test double for the "identical certificateId" property.
type SequenceIDGenerator struct {
	IDs []uuid.UUID
	pos int
}

// NewID implements IDGenerator.
func (g *SequenceIDGenerator) NewID() uuid.UUID {
	if g.pos < len(g.IDs) {
		id := g.IDs[g.pos]
		g.pos++
		return id
	}
	return uuid.New()
}

// SequenceCodeGenerator returns a fixed sequence of codes, then falls back
// to random ones. Test double for collision-retry behavior.
type SequenceCodeGenerator struct {
	Codes []string
	pos   int
}

// NewCode implements CodeGenerator.
func (g *SequenceCodeGenerator) NewCode() string {
	if g.pos < len(g.Codes) {
		code := g.Codes[g.pos]
		g.pos++
		return code
	}
	return UUIDGenerator{}.NewCode()
}
