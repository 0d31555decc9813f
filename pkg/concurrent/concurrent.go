package concurrent

import (
	"runtime"

	"github.com/zeusync/gamestate/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for each element of the iterator on up to workers
// goroutines. A workers value below 1 means GOMAXPROCS. The iterator itself
// is consumed on the calling goroutine. It waits for every action and returns
// the first error encountered.
func Concurrent[T any](i *sequence.Iterator[T], workers int, action func(T) error) error {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for value := range i.Seq() {
		g.Go(func() error {
			return action(value)
		})
	}
	return g.Wait()
}

// ForEach is Concurrent for actions that cannot fail.
func ForEach[T any](i *sequence.Iterator[T], workers int, action func(T)) {
	_ = Concurrent(i, workers, func(v T) error {
		action(v)
		return nil
	})
}
