// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monitor

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// Shutdown is a one-shot cooperative stop request. The loop checks it at
// tick boundaries and cycle checkpoints; nothing in flight is aborted.
type Shutdown struct {
	once      sync.Once
	done      chan struct{}
	requested atomic.Bool
	reason    atomic.Value
}

// NewShutdown returns an untriggered token.
func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

// Trigger requests a stop. Only the first call has an effect.
func (s *Shutdown) Trigger(reason string) {
	s.once.Do(func() {
		s.reason.Store(reason)
		s.requested.Store(true)
		close(s.done)
	})
}

// Requested reports whether Trigger has been called.
func (s *Shutdown) Requested() bool {
	return s.requested.Load()
}

// Done is closed when a stop is requested.
func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}

// Reason returns the reason given to Trigger.
func (s *Shutdown) Reason() string {
	r, _ := s.reason.Load().(string)
	return r
}

// WatchSignals triggers sh on the first of the given signals, SIGINT and
// SIGTERM when none are given. The returned function stops watching.
func WatchSignals(sh *Shutdown, logger log.FieldLogger, signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			logger.WithField("signal", sig.String()).Warn("signal received, shutting down after the current step")
			sh.Trigger(sig.String())
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(quit)
		})
	}
}
