package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newBufferedLogger(buf *bytes.Buffer) *Logger {
	return &Logger{Logger: zerolog.New(buf)}
}

func TestWithUserIDAttachesField(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferedLogger(&buf)

	log.WithUserID("user-1").Info().Msg("hello")

	assert.Contains(t, buf.String(), `"user_id":"user-1"`)
}

func TestWithTenantIDAttachesField(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferedLogger(&buf)

	log.WithTenantID("tenant-1").Info().Msg("hello")

	assert.Contains(t, buf.String(), `"tenant_id":"tenant-1"`)
}

func TestDerivedLoggersChain(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferedLogger(&buf)

	log.WithUserID("user-1").WithTenantID("tenant-1").Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"user_id":"user-1"`)
	assert.Contains(t, out, `"tenant_id":"tenant-1"`)
}
