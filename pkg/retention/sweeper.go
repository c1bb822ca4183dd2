package retention

import (
	"fmt"
	"sync"

	"github.com/entrhq/webagent/pkg/logging"
)

// Sweeper runs cleanups in the background. Triggering never blocks and
// never fails; outcomes go to the sweeper's error channel, which is drained
// into the log.
type Sweeper struct {
	cleaner *Cleaner
	logger  *logging.Logger

	run    sync.Mutex // one cleanup at a time
	wg     sync.WaitGroup
	errs   chan error
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewSweeper starts the goroutine that logs cleanup errors.
func NewSweeper(cleaner *Cleaner, logger *logging.Logger) *Sweeper {
	s := &Sweeper{
		cleaner: cleaner,
		logger:  logger,
		errs:    make(chan error, 16),
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

// Trigger schedules a cleanup of dir and returns immediately.
func (s *Sweeper) Trigger(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.run.Lock()
		res, err := s.cleaner.Cleanup(dir)
		s.run.Unlock()

		if res.Deleted > 0 {
			s.logger.Infof("cleaned up %d old screenshot(s) in %s, kept %d", res.Deleted, dir, res.Kept)
		}
		if err != nil {
			s.errs <- fmt.Errorf("cleanup of %s: %w", dir, err)
		}
	}()
}

// Wait blocks until every triggered cleanup has finished.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

// Close waits for running cleanups and stops the error drain. Later
// triggers are ignored.
func (s *Sweeper) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	close(s.errs)
	<-s.done
}

func (s *Sweeper) drain() {
	defer close(s.done)
	for err := range s.errs {
		s.logger.Errorf("%v", err)
	}
}
