package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeIdIsZero(t *testing.T) {
	var id NodeId
	assert.True(t, id.IsZero())

	id[0] = 1
	assert.False(t, id.IsZero())
}

func TestNodeIdStringIsHex(t *testing.T) {
	var id NodeId
	id[0] = 0xab
	assert.Equal(t, "ab", id.String()[:2])
	assert.Len(t, id.String(), 64)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "incoming", Incoming.String())
	assert.Equal(t, "outgoing", Outgoing.String())
	assert.Equal(t, "unknown", Direction(99).String())
}
