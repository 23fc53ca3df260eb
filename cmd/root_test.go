package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteArgsStartsFromDefaultFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.lab")
	require.NoError(t, os.WriteFile(path, []byte("0 2 C:maj\n2 4 A:min\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, ExecuteArgs([]string{"inspect", "--kind", "tab_aligned", path}, &out))
	assert.Contains(t, out.String(), "tab_aligned/a.lab")

	out.Reset()
	require.NoError(t, ExecuteArgs([]string{"inspect", path}, &out))
	assert.Contains(t, out.String(), "midi_beat_aligned/a.lab")
	assert.Equal(t, "midi_beat_aligned", inspectKind)
	assert.False(t, inspectCmd.Flags().Changed("kind"))
}
