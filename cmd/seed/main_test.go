package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedPassword(t *testing.T) {
	password, generated := seedPassword("s3cret")
	assert.Equal(t, "s3cret", password)
	assert.False(t, generated)

	first, generated := seedPassword("")
	assert.True(t, generated)
	assert.Len(t, first, 36)

	second, _ := seedPassword("")
	assert.NotEqual(t, first, second)
}
