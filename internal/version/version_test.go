package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringIncludesAllThreeFields(t *testing.T) {
	Version, GitCommit, BuildDate = "1.2.3", "abc1234", "2026-01-01"
	defer func() { Version, GitCommit, BuildDate = "dev", "unknown", "unknown" }()

	s := String()
	assert.Contains(t, s, "1.2.3")
	assert.Contains(t, s, "abc1234")
	assert.Contains(t, s, "2026-01-01")
}
