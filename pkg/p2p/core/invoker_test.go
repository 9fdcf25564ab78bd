package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
)

func TestWaitGroupInvokerWaitsForSpawned(t *testing.T) {
	inv := NewWaitGroupInvoker(definition.NewDefaultLogger())
	ran := make(chan struct{})
	inv.Spawn(func() { close(ran) }, nil)
	inv.Wait()
	select {
	case <-ran:
	default:
		t.Fatal("Wait returned before the spawned goroutine ran")
	}
}

func TestWaitGroupInvokerRecoversPanicAndReportsIt(t *testing.T) {
	inv := NewWaitGroupInvoker(definition.NewDefaultLogger())
	var reported error
	done := make(chan struct{})

	inv.Spawn(func() {
		panic(errors.New("boom"))
	}, func(recovered error) {
		reported = recovered
		close(done)
	})

	inv.Wait()
	<-done
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "boom")
}
