// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"io"
	"sync"

	"gopkg.in/tomb.v1"
)

// Runner drives a Client from a dedicated goroutine until stopped. It is the
// supervising loop for hosts that do not want to call Update themselves.
type Runner struct {
	client *Client

	mu      sync.Mutex
	started bool
	death   tomb.Tomb
}

// NewRunner creates a runner for c. The runner takes ownership of c: once
// started, only the runner goroutine may touch it.
func NewRunner(c *Client) *Runner {
	return &Runner{client: c}
}

// Start launches the update loop. Calling Start more than once has no effect.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	go r.loop()
}

func (r *Runner) loop() {
	defer r.death.Done()
	defer func() {
		if err := r.client.Close(); err != nil {
			r.client.logger.Debug("Runner close", Field{Key: "error", Value: err})
		}
	}()

	for {
		select {
		case <-r.death.Dying():
			return
		default:
		}

		if err := r.client.Update(); err != nil {
			if IsSynergyError(err, ErrClosed) {
				r.death.Kill(err)
				return
			}
			r.client.logger.Debug("Update recovered from error", Field{Key: "error", Value: err})
		}
	}
}

// Stop ends the update loop and waits for it to exit. The transport is
// closed first when it implements io.Closer so that a blocked receive or
// sleep returns promptly. The client is closed on the way out.
func (r *Runner) Stop() error {
	r.mu.Lock()
	started := r.started
	r.started = true
	r.mu.Unlock()

	if !started {
		// never started: close in place and mark the tomb dead
		err := r.client.Close()
		r.death.Done()
		return err
	}

	r.death.Kill(nil)
	if closer, ok := r.client.transport.(io.Closer); ok {
		_ = closer.Close()
	}
	return r.death.Wait()
}

// Dead returns a channel that is closed once the update loop has exited.
func (r *Runner) Dead() <-chan struct{} {
	return r.death.Dead()
}
