package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "reconcile"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, seedCmd.Flags().Lookup("file"))
}

func TestMissingConfigFileFailsBeforeConnecting(t *testing.T) {
	for _, sub := range []string{"migrate", "seed", "reconcile", "serve"} {
		t.Run(sub, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs([]string{sub, "--config", filepath.Join(t.TempDir(), "nope.yaml")})
			err := Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "read config")
		})
	}
}
