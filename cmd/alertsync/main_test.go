package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, exitFatal, exitCode(errors.New("boom")))
	require.Equal(t, exitMissingInput, exitCode(withExitCode(exitMissingInput, errors.New("missing"))))

	wrapped := fmt.Errorf("import: %w", withExitCode(exitMissingInput, errors.New("missing")))
	require.Equal(t, exitMissingInput, exitCode(wrapped))

	require.NoError(t, withExitCode(exitFatal, nil))
}
