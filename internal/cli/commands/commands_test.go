package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"port", "host", "collection-mode"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	port, err := cmd.Flags().GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, 3000, port)

	host, err := cmd.Flags().GetBool("host")
	require.NoError(t, err)
	assert.False(t, host, "loopback is the default bind")
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("json"))
}

func TestNewAddCommand(t *testing.T) {
	cmd := NewAddCommand()

	assert.Equal(t, "add <url>", cmd.Use)
	assert.Error(t, cmd.Args(cmd, nil), "a url is required")
	assert.NoError(t, cmd.Args(cmd, []string{"http://a"}))
	assert.Error(t, cmd.Args(cmd, []string{"http://a", "http://b"}))
}

func TestNewPurgeCommand(t *testing.T) {
	cmd := NewPurgeCommand()

	assert.Equal(t, "purge", cmd.Use)
	assert.NotEmpty(t, cmd.Long)
}

func TestNewMigrateCommand(t *testing.T) {
	cmd := NewMigrateCommand()

	assert.Equal(t, "migrate", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
}

func TestNewConfigCommand(t *testing.T) {
	cmd := NewConfigCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	// Without a loaded config the defaults are printed.
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "driver: sqlite")
	assert.Contains(t, buf.String(), "port: 3000")
}

func TestRenderTable(t *testing.T) {
	buf := new(bytes.Buffer)
	renderTable(buf, nil)
	assert.Equal(t, "(0 jokes)\n", buf.String())
}
