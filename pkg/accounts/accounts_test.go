package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := "alice\n\n  bob  \r\n\t\ncarol"
	list, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []Account{
		{Name: "alice", Position: 0},
		{Name: "bob", Position: 1},
		{Name: "carol", Position: 2},
	}, list)
}

func TestReadEmpty(t *testing.T) {
	list, err := Read(strings.NewReader("\n \n"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\nbob\n"), 0644))

	list, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = Load(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotFound)
}
