package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerToggleDebugReturnsNewState(t *testing.T) {
	log := NewDefaultLogger()
	assert.True(t, log.ToggleDebug(true))
	assert.False(t, log.ToggleDebug(false))
}

func TestDefaultLoggerWithReturnsIndependentLogger(t *testing.T) {
	log := NewDefaultLogger()
	scoped := log.With("node_id", "abc123")
	concrete, ok := scoped.(*DefaultLogger)
	assert.True(t, ok)
	assert.NotNil(t, concrete)

	// Toggling the parent must not panic the scoped child; both share the
	// same atomic level.
	log.ToggleDebug(true)
	scoped.Infof("still usable after toggling parent")
}
