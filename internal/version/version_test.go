package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	s := Info()
	assert.Contains(t, s, Version)
	assert.Contains(t, s, Commit)
}
