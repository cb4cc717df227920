// Package main provides tests for the jokebox CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/jokebox/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "jokebox") {
		t.Errorf("version output should contain 'jokebox', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"serve", "list", "add", "purge"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output should mention %q, got: %s", want, output)
		}
	}
}
