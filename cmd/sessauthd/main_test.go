package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"serve", "migrate", "check"} {
		assert.Contains(t, buf.String(), sub, "help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	configFile = ""
	t.Cleanup(func() { configFile = "" })

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config=/etc/sessauthd.yaml", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/etc/sessauthd.yaml", configFile)
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestCheckCommand(t *testing.T) {
	configFile = ""

	t.Run("valid with warnings", func(t *testing.T) {
		cmd := NewRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs([]string{"check", "--jwt.secret=short-secret", "--jwt.ttl=720h"})

		require.NoError(t, cmd.Execute())
		assert.Contains(t, buf.String(), "warning secret_short")
		assert.Contains(t, buf.String(), "warning ttl_long")
		assert.Contains(t, buf.String(), "configuration ok")
	})

	t.Run("invalid", func(t *testing.T) {
		cmd := NewRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs([]string{"check", "--store.driver=sqlite"})

		require.Error(t, cmd.Execute())
	})
}
