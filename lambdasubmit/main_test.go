package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleRequestReportsZeroExitOnSuccess(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "job.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0755))

	result, err := handleRequest(context.Background(), Event{ScriptPath: script})
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
}

func TestHandleRequestReportsNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "job.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 7\n"), 0755))

	result, err := handleRequest(context.Background(), Event{ScriptPath: script})
	require.NoError(t, err)
	require.Equal(t, 7, result.ExitCode)
}

func TestHandleRequestErrorsOnMissingScript(t *testing.T) {
	_, err := handleRequest(context.Background(), Event{ScriptPath: "/no/such/script.sh"})
	require.Error(t, err)
}
