package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWritesCurrentPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ncd.pid")

	require.NoError(t, Acquire(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
}

func TestAcquireRejectsLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ncd.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644))

	err := Acquire(path)
	assert.Error(t, err)
}

func TestAcquireOverwritesStalePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ncd.pid")
	// pid 1 may or may not be reachable by this process depending on
	// namespace, but a pid far beyond any plausible live process is
	// guaranteed dead on any single test host.
	require.NoError(t, os.WriteFile(path, []byte("999999\n"), 0o644))

	require.NoError(t, Acquire(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
}

func TestReleaseMissingFileIsNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.pid")
	assert.NoError(t, Release(path))
}
