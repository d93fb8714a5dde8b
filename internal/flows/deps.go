package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/session"
)

// StateStore is the subset of *session.Store the flows write through.
type StateStore interface {
	Read() session.Session
	Snapshot() (session.Session, bool)
	Begin() session.Ticket
	Commit(session.Ticket, session.Session) bool
	CommitClear(session.Ticket) bool
	Release(session.Ticket)
	Adopt(session.Session) bool
	Clear()
}

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Verify      VerifyDeps
	Guard       GuardDeps
	Relay       RelayDeps
	Liveness    LivenessDeps
	BlockStatus BlockStatusDeps
	Logout      LogoutDeps
}

func nowFn(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func purge(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
