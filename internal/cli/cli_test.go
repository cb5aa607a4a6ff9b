package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParserRegistersAllCommands(t *testing.T) {
	parser, globals, cmds := buildParser("1.2.3")
	require.NotNil(t, parser)
	require.NotNil(t, globals)
	require.NotNil(t, cmds)

	assert.Equal(t, "scribe", parser.Name)

	for _, name := range []string{"serve", "status", "sessions", "show", "purge"} {
		assert.NotNil(t, parser.Find(name), "command %s should be registered", name)
	}
}

func TestCommandsShareGlobals(t *testing.T) {
	_, globals, cmds := buildParser("1.2.3")

	assert.Same(t, globals, cmds.Serve.globals)
	assert.Same(t, globals, cmds.Status.globals)
	assert.Same(t, globals, cmds.Sessions.globals)
	assert.Same(t, globals, cmds.Show.globals)
	assert.Same(t, globals, cmds.Purge.globals)
}

func TestRunWithArgs_Version(t *testing.T) {
	out := captureOutput(t, func() {
		err := RunWithArgs("9.9.9", []string{"--version"})
		assert.NoError(t, err)
	})
	assert.Contains(t, out, "scribe 9.9.9")
}

func TestRunWithArgs_UnknownCommand(t *testing.T) {
	err := RunWithArgs("1.2.3", []string{"frobnicate"})
	assert.Error(t, err)
}

func TestVersionPropagatedToCommands(t *testing.T) {
	_, _, cmds := buildParser("2.0.0")
	assert.Equal(t, "2.0.0", cmds.Status.version)
	assert.Equal(t, "2.0.0", cmds.Serve.version)
}
