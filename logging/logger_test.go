package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddWriterIsIdempotent verifies that adding the same writer twice does not duplicate it in
// the logger's writer list.
func TestAddWriterIsIdempotent(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel, false)

	var buf bytes.Buffer
	logger.AddWriter(&buf, UNSTRUCTURED)
	logger.AddWriter(&buf, UNSTRUCTURED)

	require.Len(t, logger.writers, 1)
}

// TestNewSubLoggerInheritsLevelAndWriters verifies a sub-logger carries its parent's level and
// writer set forward while attaching its own key/value context.
func TestNewSubLoggerInheritsLevelAndWriters(t *testing.T) {
	logger := NewLogger(zerolog.WarnLevel, false)

	var buf bytes.Buffer
	logger.AddWriter(&buf, UNSTRUCTURED)

	sub := logger.NewSubLogger("component", "initializer")
	assert.Equal(t, zerolog.WarnLevel, sub.Level())

	sub.Warn("seeding corpus")
	assert.Contains(t, buf.String(), "seeding corpus")
	assert.Contains(t, buf.String(), "initializer")
}

// TestSetLevelUpdatesBothLoggers verifies SetLevel propagates to both the console and multi
// loggers so a level raised at runtime actually suppresses/admits messages consistently.
func TestSetLevelUpdatesBothLoggers(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel, false)
	logger.SetLevel(zerolog.ErrorLevel)

	assert.Equal(t, zerolog.ErrorLevel, logger.Level())
	assert.Equal(t, zerolog.ErrorLevel, logger.multiLogger.GetLevel())
	assert.Equal(t, zerolog.ErrorLevel, logger.consoleLogger.GetLevel())
}

// TestZerologExposesUnderlyingLogger verifies the Zerolog() accessor returns a logger at the
// configured level, the bridge cmd uses to hand a sub-logger to initializer.New.
func TestZerologExposesUnderlyingLogger(t *testing.T) {
	parent := NewLogger(zerolog.DebugLevel, false)
	var buf bytes.Buffer
	parent.AddWriter(&buf, STRUCTURED)
	logger := parent.NewSubLogger("component", "oracle")
	zl := logger.Zerolog()
	assert.Equal(t, zerolog.DebugLevel, zl.GetLevel())
}
