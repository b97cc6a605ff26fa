package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/krisalay/isr-cache/internal/common"
)

// FetchErrorMessage is what the user sees when a fetch fails.
const FetchErrorMessage = "Failed to fetch API data"

var ErrInvalidTransition = errors.New("invalid transition")

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

type Event string

const (
	EventMount    Event = "mount"
	EventRefresh  Event = "refresh"
	EventResolved Event = "fetch-resolved"
	EventRejected Event = "fetch-rejected"
)

/*
Transition is the display state machine:

	idle    --mount-->          loading
	idle    --refresh-->        loading
	success --refresh-->        loading
	error   --refresh-->        loading
	loading --fetch-resolved--> success
	loading --fetch-rejected--> error

Anything else, refresh while loading included, is ErrInvalidTransition.
*/
func Transition(from State, ev Event) (State, error) {
	switch {
	case from == StateIdle && ev == EventMount:
		return StateLoading, nil
	case ev == EventRefresh && from != StateLoading:
		return StateLoading, nil
	case from == StateLoading && ev == EventResolved:
		return StateSuccess, nil
	case from == StateLoading && ev == EventRejected:
		return StateError, nil
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}

// Fetcher is what the shell loads data from. *Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (*Response, error)
}

// View is a snapshot of what the display shows.
type View struct {
	State State

	// Response is the last successful response. It stays set after a
	// failed refresh.
	Response *Response

	// Error is set only in StateError.
	Error string
}

// Shell drives the state machine around a Fetcher.
type Shell struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu   sync.Mutex
	view View
}

func NewShell(f Fetcher, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = common.Logger()
	}
	return &Shell{
		fetcher: f,
		logger:  logger,
		view:    View{State: StateIdle},
	}
}

// View returns the current snapshot.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Mount performs the initial fetch.
func (s *Shell) Mount(ctx context.Context) error {
	return s.load(ctx, EventMount)
}

// Refresh performs a user-triggered fetch. It is rejected while a fetch is
// already running.
func (s *Shell) Refresh(ctx context.Context) error {
	return s.load(ctx, EventRefresh)
}

func (s *Shell) load(ctx context.Context, trigger Event) error {
	if err := s.dispatch(trigger, nil); err != nil {
		return err
	}

	resp, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("client: error fetching API", "error", err)
		return s.dispatch(EventRejected, nil)
	}
	return s.dispatch(EventResolved, resp)
}

func (s *Shell) dispatch(ev Event, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Transition(s.view.State, ev)
	if err != nil {
		return err
	}

	switch next {
	case StateLoading:
		s.view.Error = ""
	case StateSuccess:
		s.view.Response = resp
	case StateError:
		s.view.Error = FetchErrorMessage
	}
	s.view.State = next
	return nil
}
