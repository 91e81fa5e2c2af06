package browser

import (
	"context"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Status is the display state of the record fetch
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// FetchState is what the rendering layer shows for the record fetch
type FetchState struct {
	Status     Status
	Rows       []models.ViewRow
	TotalCount int64
	Err        string
}

// Ticket identifies one issued fetch
type Ticket uint64

// Loader runs the idle → loading → success|error cycle. Only the latest
// ticket may settle it; responses for older tickets are dropped.
type Loader struct {
	latest Ticket
	cancel context.CancelFunc
	state  FetchState
}

// Begin supersedes any in-flight fetch and returns the new ticket with a
// context that is cancelled once the ticket is superseded or settled.
func (l *Loader) Begin(parent context.Context) (Ticket, context.Context) {
	if l.cancel != nil {
		l.cancel()
	}
	l.latest++
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.state = FetchState{Status: StatusLoading}
	return l.latest, ctx
}

// IsCurrent reports whether t is the in-flight ticket
func (l *Loader) IsCurrent(t Ticket) bool {
	return t == l.latest && l.state.Status == StatusLoading
}

// Resolve settles the fetch for t. It returns false, changing nothing, when
// t has been superseded or already settled.
func (l *Loader) Resolve(t Ticket, rows []models.ViewRow, total int64, err error) bool {
	if !l.IsCurrent(t) {
		return false
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if err != nil {
		l.state = FetchState{Status: StatusError, Err: err.Error()}
		return true
	}
	l.state = FetchState{Status: StatusSuccess, Rows: rows, TotalCount: total}
	return true
}

// State returns the current display state
func (l *Loader) State() FetchState {
	return l.state
}
