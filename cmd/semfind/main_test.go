package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// testApp returns the CLI with captured output and exit handling disabled
func testApp(t *testing.T) (*cli.App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SEMFIND_CONFIG", "")

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, &stdout, &stderr
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"index", "search", "list"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestSearchLimitDefaultsToOne(t *testing.T) {
	cmd := findCommand(t, newApp(), "search")
	var limit *cli.IntFlag
	for _, f := range cmd.Flags {
		if fl, ok := f.(*cli.IntFlag); ok && fl.Name == "limit" {
			limit = fl
		}
	}
	require.NotNil(t, limit)
	assert.Equal(t, 1, limit.Value)
}

func TestIndexRequiresPaths(t *testing.T) {
	app, _, _ := testApp(t)

	err := app.Run([]string{"semfind", "index"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestSearchRequiresQuery(t *testing.T) {
	app, _, _ := testApp(t)

	err := app.Run([]string{"semfind", "search", "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestInvalidLogLevel(t *testing.T) {
	app, _, _ := testApp(t)

	err := app.Run([]string{"semfind", "--log-level", "loud", "list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}
