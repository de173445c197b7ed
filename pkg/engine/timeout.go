package engine

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started before this
// one finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// evalResult carries an evaluation's output through a channel.
type evalResult struct {
	desc   *Description
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, or fails after timeout.
// Results from evaluations older than the current generation are
// discarded; a timed out evaluation keeps running in its goroutine and its
// result is dropped the same way.
func waitWithTimeout(
	ch <-chan evalResult,
	timeout time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*Description, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.desc, res.errors, res.err

	case <-timer.C:
		return nil, nil, errors.Errorf("evaluation timed out after %s", timeout)
	}
}
