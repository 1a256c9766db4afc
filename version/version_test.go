package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, "atomspace dev (commit dev, built unknown)", info.String())

	info.CommitHash = "0123456789abcdef"
	assert.Equal(t, "0123456", info.Short())
}
