package main

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinta/palette"
)

func TestSubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "generate", "preview", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"WARN", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"bogus", log.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "parseLevel(%q)", tt.in)
	}
}

func TestPick(t *testing.T) {
	assert.Equal(t, "frappe", pick("frappe", "mocha"))
	assert.Equal(t, "mocha", pick("", "mocha"))
}

func TestRenderFlavorListsTokens(t *testing.T) {
	out := renderFlavor(palette.Mocha)
	require.NotEmpty(t, out)
	for _, tok := range []string{"base", "text", "mauve", "rosewater"} {
		assert.Contains(t, out, tok)
	}
	hex, ok := palette.Hex(palette.Mocha, palette.Base)
	require.True(t, ok)
	assert.Contains(t, out, hex)
}

func TestPreviewRejectsUnknownFlavor(t *testing.T) {
	err := runPreview(nil, []string{"mochaccino"})
	assert.Error(t, err)
}
