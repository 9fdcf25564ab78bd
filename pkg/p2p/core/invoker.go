package core

import (
	"fmt"
	"sync"

	"github.com/nodeline/p2p-supervisor/pkg/p2p/definition"
)

// Invoker launches goroutines on behalf of the supervisor. Grounded on the
// teacher's core.Invoker/TestInvoker split: production code joins every
// spawned goroutine through a WaitGroup and turns a panic into a recovered,
// logged error instead of crashing the process. Wait gives tests and
// shutdown a deterministic join point.
type Invoker interface {
	// Spawn runs f in a new goroutine, recovering any panic and reporting it
	// to onPanic instead of letting it escape.
	Spawn(f func(), onPanic func(recovered error))

	// Wait blocks until every goroutine started through Spawn has returned.
	Wait()
}

// WaitGroupInvoker is the production Invoker.
type WaitGroupInvoker struct {
	group *sync.WaitGroup
	log   definition.Logger
}

func NewWaitGroupInvoker(log definition.Logger) *WaitGroupInvoker {
	return &WaitGroupInvoker{group: &sync.WaitGroup{}, log: log}
}

func (w *WaitGroupInvoker) Spawn(f func(), onPanic func(recovered error)) {
	w.group.Add(1)
	go func() {
		defer w.group.Done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("recovered panic: %v", r)
				w.log.Errorf("worker panicked: %v", err)
				if onPanic != nil {
					onPanic(err)
				}
			}
		}()
		f()
	}()
}

func (w *WaitGroupInvoker) Wait() {
	w.group.Wait()
}
