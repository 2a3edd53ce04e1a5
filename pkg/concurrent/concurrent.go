package concurrent

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pathglyph/pathglyph/pkg/sequence"
)

// Concurrent runs the action for each element of the iterator in a
// separate goroutine and waits for all of them. The first error
// encountered is returned.
func Concurrent[T any](i *sequence.Iterator[T], action func(T) error) error {
	errGroup := errgroup.Group{}
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}

		errGroup.Go(func() error {
			return action(value)
		})
	}

	return errGroup.Wait()
}

// ParallelMute runs the action for each element of the iterator in a
// separate goroutine, waits for all of them and discards errors.
func ParallelMute[T any](i *sequence.Iterator[T], action func(T) error) {
	wg := sync.WaitGroup{}
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}

		wg.Add(1)
		go func(value T) {
			defer wg.Done()
			_ = action(value)
		}(value)
	}

	wg.Wait()
}
