package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	log.Info("certificate issued",
		CertificateID("cert-1"),
		StudentID("student-1"),
		Float64("completion_rate", 91.5),
	)

	entry := captureLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "certificate issued", entry["message"])

	fields := entry["fields"].(map[string]any)
	assert.Equal(t, "cert-1", fields["certificate_id"])
	assert.Equal(t, "student-1", fields["student_id"])
	assert.Equal(t, 91.5, fields["completion_rate"])
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Debug("noise")
	log.Info("more noise")
	assert.Zero(t, buf.Len())

	log.Warn("verification code collision, regenerating")
	assert.Contains(t, buf.String(), "WARN")
}

func TestLoggerWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).With(CourseID("course-1"))

	log.Info("lesson completed", LessonID("lesson-1"))

	fields := captureLine(t, &buf)["fields"].(map[string]any)
	assert.Equal(t, "course-1", fields["course_id"])
	assert.Equal(t, "lesson-1", fields["lesson_id"])
}

func TestLoggerIncludesCaller(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, AddCaller: true})

	log.Info("hello")

	entry := captureLine(t, &buf)
	caller, ok := entry["caller"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(caller, "logger_test.go:"))
}

func TestErrField(t *testing.T) {
	f := Err(assert.AnError)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, assert.AnError.Error(), f.Value)

	assert.Nil(t, Err(nil).Value)
}
