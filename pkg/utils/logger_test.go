package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewSugaredLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "production", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewSugaredLogger("averager", tt.verbose)
			require.NoError(t, err)
			require.NotNil(t, log)

			core := log.Desugar().Core()
			require.Equal(t, tt.wantDebug, core.Enabled(zap.DebugLevel))
			require.True(t, core.Enabled(zap.InfoLevel))
		})
	}
}
