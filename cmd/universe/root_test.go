// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestRootHasSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["init"])
	assert.True(t, names["version"])
}

func TestVersionCommand(t *testing.T) {
	resetViper(t)

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "universe dev")
}

func TestInitWritesDefaultConfig(t *testing.T) {
	resetViper(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"init"})

	require.NoError(t, root.Execute())

	cfgPath := filepath.Join(home, ".config", "universe", "universe.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "provider:")
	assert.Contains(t, out.String(), cfgPath)
}

func TestInitIsIdempotent(t *testing.T) {
	resetViper(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	for range 2 {
		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs([]string{"init"})
		require.NoError(t, root.Execute())
	}

	out := &bytes.Buffer{}
	root := NewRootCmd()
	root.SetOut(out)
	root.SetArgs([]string{"init"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "already exists")
}

func TestServeRejectsUnknownProvider(t *testing.T) {
	resetViper(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfgPath := filepath.Join(home, "universe.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
listen: "127.0.0.1:4242"
data_dir: "`+filepath.Join(home, "data")+`"
provider:
  name: mystery
`), 0o600))

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--config", cfgPath})

	err := root.Execute()
	require.Error(t, err)
}
