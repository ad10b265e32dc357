package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })

	GitCommit = "abc1234"
	assert.Contains(t, String(), "gosxcu v"+Version)
	assert.Contains(t, String(), "commit abc1234")
}
