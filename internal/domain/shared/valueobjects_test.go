package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, Round2(66.666666))
	assert.Equal(t, 66.66, Round2(66.664))
	assert.Equal(t, 66.67, Round2(66.665))
	assert.Equal(t, 75.0, Round2(75.0))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 100.0, Round2(100))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 75.0, Ratio(3, 4))
	assert.Equal(t, 66.67, Ratio(2, 3))
	assert.Equal(t, 100.0, Ratio(5, 5))
	assert.Equal(t, 0.0, Ratio(0, 10))

	// Zero and negative totals yield 0, not NaN or a panic.
	assert.Equal(t, 0.0, Ratio(0, 0))
	assert.Equal(t, 0.0, Ratio(3, 0))
	assert.Equal(t, 0.0, Ratio(3, -1))
}

func TestPercentage(t *testing.T) {
	p, err := NewPercentage(66.67)
	assert.NoError(t, err)
	assert.Equal(t, 66.67, p.Float64())
	assert.Equal(t, "66.7%", p.String())

	_, err = NewPercentage(-0.1)
	assert.ErrorIs(t, err, ErrValueOutOfRange)

	_, err = NewPercentage(100.1)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestVerificationCode(t *testing.T) {
	code, err := NewVerificationCode("A3F9B2C1")
	assert.NoError(t, err)
	assert.Equal(t, "A3F9B2C1", code.String())

	invalid := []string{
		"",
		"a3f9b2c1",  // lowercase
		"A3F9B2",    // too short
		"A3F9B2C1D", // too long
		"A3F9B2C!",  // symbol
		"A3F9 B2C",  // whitespace
	}
	for _, s := range invalid {
		_, err := NewVerificationCode(s)
		assert.ErrorIs(t, err, ErrInvalidFormat, "code %q should be rejected", s)
	}
}

func TestUUIDGenerator_NewCode(t *testing.T) {
	gen := UUIDGenerator{}
	for i := 0; i < 20; i++ {
		code, err := NewVerificationCode(gen.NewCode())
		assert.NoError(t, err)
		assert.Len(t, code.String(), VerificationCodeLength)
	}
}
