// Package client implements the merchant-side half of the gateway: a
// single-flight request orchestrator, a one-shot toast emitter and the
// terminal view that renders inventory rows.
package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/harborline/stockgate/internal/domain"
)

// State is the orchestrator's finite request state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Submitter performs one gateway round trip and returns the Action Result.
type Submitter interface {
	Submit(ctx context.Context) (*domain.ActionResult, error)
}

// Fetcher owns the request state machine for one logical action:
// idle → submitting → loaded, re-entrant from loaded. At most one call is
// in flight at a time; Trigger while submitting is a no-op. The caller
// observes transitions through State, Result and the Updates channel and
// is never blocked by a trigger.
type Fetcher struct {
	mu        sync.Mutex
	state     State
	seq       uint64
	result    *domain.ActionResult
	submitter Submitter
	updates   chan struct{}
}

// NewFetcher creates a Fetcher in the idle state.
func NewFetcher(submitter Submitter) *Fetcher {
	return &Fetcher{
		submitter: submitter,
		updates:   make(chan struct{}, 1),
	}
}

// Trigger starts one submission and reports whether it was accepted. A
// trigger issued while a call is already in flight is dropped, keeping the
// single-flight guarantee; it never duplicates the network call.
func (f *Fetcher) Trigger(ctx context.Context) bool {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return false
	}
	f.state = StateSubmitting
	f.mu.Unlock()
	f.notify()

	go func() {
		res, err := f.submitter.Submit(ctx)
		if err != nil {
			// A gateway-level failure still completes the state machine with
			// a well-formed failure result.
			log.Debug().Err(err).Msg("client: submit failed")
			res = &domain.ActionResult{Error: err.Error()}
		}

		f.mu.Lock()
		f.seq++
		res.Seq = f.seq
		f.result = res
		f.state = StateLoaded
		f.mu.Unlock()
		f.notify()
	}()

	return true
}

// State returns the current request state.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result returns the most recent Action Result, retained until replaced by
// the next completed trigger. Nil until the first trigger completes.
func (f *Fetcher) Result() *domain.ActionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Updates is the render tick: it receives after every state transition.
// Ticks are coalesced, not queued.
func (f *Fetcher) Updates() <-chan struct{} {
	return f.updates
}

func (f *Fetcher) notify() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}
