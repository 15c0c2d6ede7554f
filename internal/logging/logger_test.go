package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	log, err := New(false, "warn")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zapcore.InfoLevel))
	require.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = New(true, "")
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zapcore.InfoLevel))

	_, err = New(true, "loud")
	require.Error(t, err)
}
