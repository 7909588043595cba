package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesCLIDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.SampleInterval)
	assert.Equal(t, 60*time.Second, cfg.RebalanceInterval)
	assert.True(t, cfg.Rebalance)
	assert.False(t, cfg.Trace)
	assert.Equal(t, 95.0, cfg.CoreThreshold)
}

func TestNewAppliesOptionsOverDefault(t *testing.T) {
	cfg := New(
		WithSampleInterval(5*time.Second),
		WithRebalance(false),
		WithVerbose(true),
	)
	assert.Equal(t, 5*time.Second, cfg.SampleInterval)
	assert.False(t, cfg.Rebalance)
	assert.True(t, cfg.Verbose)
	// untouched fields keep their default
	assert.Equal(t, DefaultRingLen, cfg.RingLen)
}

func TestMinTicksBetweenCommits(t *testing.T) {
	cfg := New(WithSampleInterval(10 * time.Second))
	cfg.RebalanceInterval = 60 * time.Second
	assert.Equal(t, 6, cfg.MinTicksBetweenCommits())
}

func TestMinTicksBetweenCommitsFloorsAtOne(t *testing.T) {
	cfg := New(WithSampleInterval(30 * time.Second))
	cfg.RebalanceInterval = 10 * time.Second
	assert.Equal(t, 1, cfg.MinTicksBetweenCommits())
}

func TestWindowSamplesCapsAtMinTicksBetweenCommits(t *testing.T) {
	cfg := Default()
	cfg.RingLen = 20
	cfg.SampleInterval = 10 * time.Second
	cfg.RebalanceInterval = 60 * time.Second // 6 ticks
	assert.Equal(t, 6, cfg.WindowSamples())
}

func TestExpandPathExpandsTilde(t *testing.T) {
	got, err := ExpandPath("~/ncd/ncd.pid")
	require.NoError(t, err)
	assert.NotContains(t, got, "~")
}

func TestExpandPathLeavesAbsolutePathAlone(t *testing.T) {
	got, err := ExpandPath("/var/run/ncd/ncd.pid")
	require.NoError(t, err)
	assert.Equal(t, "/var/run/ncd/ncd.pid", got)
}

func TestExpandPathEmptyStaysEmpty(t *testing.T) {
	got, err := ExpandPath("")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
