package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/standards/internal/diag"
)

func TestNew(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	verbose, err := New(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, false)
	logger.Debug("hidden")
	logger.Info("Generated ruleset", zap.String("path", "dist/rulesets/go.md"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "Generated ruleset")
	assert.Contains(t, out, `"path": "dist/rulesets/go.md"`)
}

func TestDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Diagnostics(zap.New(core), []diag.Diagnostic{
		{Kind: diag.KindUnresolvedReference, Source: "ghost", Message: `guideline "ghost" not found`},
		{Kind: diag.KindMissingField, Source: "a.md", Message: "missing 'id' in frontmatter"},
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, `guideline "ghost" not found`, entries[0].Message)
	assert.Equal(t, "unresolved-reference", entries[0].ContextMap()["kind"])
	assert.Equal(t, "a.md", entries[1].ContextMap()["source"])
}
