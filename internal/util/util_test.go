package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp01(0.5))
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, -100.0, Clamp(-1e9, -100, 100))
	assert.Equal(t, 100.0, Clamp(math.Inf(1), -100, 100))
}

func TestPtr(t *testing.T) {
	p := Ptr(3)
	assert.Equal(t, 3, *p)
	*p = 4
	assert.NotEqual(t, *Ptr(3), *p)
}
