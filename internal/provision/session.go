// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type (
	// Session is the state of one Inject call. The notice flag lives here so
	// concurrent and repeated sessions never share it.
	Session struct {
		ID        string
		Component string

		logger *log.Logger
		notice string
		w      io.Writer
		sent   atomic.Bool
		report *Report
	}

	sessionKey struct{}
)

// NewSession starts a session for component.
func (e *Engine) NewSession(component string) *Session {
	id := uuid.NewString()
	return &Session{
		ID:        id,
		Component: component,
		logger:    e.logger.With("session", id[:8], "component", component),
		notice:    e.cfg.Notice,
		w:         e.cfg.NoticeWriter,
		report:    &Report{Session: id, Component: component},
	}
}

// Notify prints the session notice the first time it is called. Engines
// call it right before the first network access of the session.
func (s *Session) Notify() {
	if !s.sent.CompareAndSwap(false, true) {
		return
	}
	if s.notice != "" && s.w != nil {
		_, _ = fmt.Fprintln(s.w, s.notice)
	}
}

// Noticed reports whether any network access happened in the session.
func (s *Session) Noticed() bool { return s.sent.Load() }

// Report returns the outcomes recorded so far.
func (s *Session) Report() *Report { return s.report }

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
