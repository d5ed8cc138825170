package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeedCommand(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db") + "?_pragma=busy_timeout(5000)"
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dsn)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"seed"})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "seeded 5 vaccination schedule(s), 5 symptom guide(s)")

	out.Reset()
	rootCmd.SetArgs([]string{"seed"})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "seeded 0 vaccination schedule(s)")
	require.Contains(t, out.String(), "store holds 5 vaccination schedule(s)")
}

func TestAskRequiresQuestion(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"ask"})
	require.Error(t, rootCmd.Execute())
}

func TestConfigErrorSurfaces(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "x")
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"sync"})
	require.ErrorContains(t, rootCmd.Execute(), "DATABASE_DRIVER")
}

