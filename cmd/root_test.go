package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "exec", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRunFlagDefaults(t *testing.T) {
	flags := runCmd.Flags()

	workspace, err := flags.GetString("workspace")
	require.NoError(t, err)
	assert.Equal(t, "files", workspace)

	iterations, err := flags.GetInt("iterations")
	require.NoError(t, err)
	assert.Equal(t, 3, iterations)

	steps, err := flags.GetInt("steps")
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	mode, err := flags.GetString("mode")
	require.NoError(t, err)
	assert.Equal(t, "blocks", mode)
}

func TestRunRequiresGoal(t *testing.T) {
	err := runCmd.Args(runCmd, []string{})
	assert.Error(t, err)

	err = runCmd.Args(runCmd, []string{"build something"})
	assert.NoError(t, err)
}
