package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNodeIdIsDeterministicAndKeySensitive(t *testing.T) {
	a := DeriveNodeId([]byte("key-a"))
	again := DeriveNodeId([]byte("key-a"))
	b := DeriveNodeId([]byte("key-b"))

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
}
