// Package command is the command surface of spec.md §6: one Go method
// per named command, taking and returning plain structs/values, and an
// event channel standing in for the unprescribed UI transport's
// "export-progress-{export_id}" events.
//
// Every method here is a thin adapter: validation and business logic
// live in internal/workspace, internal/archive, internal/connmgr,
// internal/queryengine, internal/schema, and internal/export. This
// package's only genuine responsibility, per spec.md §7, is being the
// single place that turns a *driver.Error into a stable human-readable
// string for the UI — everywhere else callers switch on Kind directly.
package command

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/archive"
	"github.com/dwifuady/larik/internal/connmgr"
	"github.com/dwifuady/larik/internal/queryengine"
	"github.com/dwifuady/larik/internal/schema"
	"github.com/dwifuady/larik/internal/scheduler"
	"github.com/dwifuady/larik/internal/store"
	"github.com/dwifuady/larik/internal/workspace"
)

// Event is one message delivered on the Service's event channel, named
// per spec.md §6's "export-progress-{export_id}" convention.
type Event struct {
	Name    string
	Payload any
}

// Service is the composition root's single entry point: every command
// listed in spec.md §6 is a method on Service.
type Service struct {
	store     *store.Store
	workspace *workspace.Repository
	archive   *archive.Repository
	conns     *connmgr.Manager
	queries   *queryengine.Engine
	schemas   *schema.Cache
	scheduler *scheduler.Scheduler
	log       zerolog.Logger

	events chan Event

	exportMu   sync.Mutex
	exportJobs map[string]*atomic.Bool
}

// New wires a Service from the already-constructed components; the
// composition root (cmd/larikd) owns building each of these first.
func New(
	st *store.Store,
	ws *workspace.Repository,
	arc *archive.Repository,
	conns *connmgr.Manager,
	queries *queryengine.Engine,
	schemas *schema.Cache,
	sched *scheduler.Scheduler,
) *Service {
	return &Service{
		store:      st,
		workspace:  ws,
		archive:    arc,
		conns:      conns,
		queries:    queries,
		schemas:    schemas,
		scheduler:  sched,
		log:        applog.WithComponent("command"),
		events:     make(chan Event, 64),
		exportJobs: make(map[string]*atomic.Bool),
	}
}

// Events returns the channel the UI layer should drain for
// "export-progress-{export_id}" and similar notifications.
func (s *Service) Events() <-chan Event {
	return s.events
}

func (s *Service) emit(name string, payload any) {
	select {
	case s.events <- Event{Name: name, Payload: payload}:
	default:
		s.log.Warn().Str("event", name).Msg("event channel full, dropping event")
	}
}

// StringifyError converts any error into the stable human-readable text
// spec.md §7 requires at the command boundary. *driver.Error's Kind is
// folded into the text (via *Error.Error()'s "kind: message: cause"
// shape) rather than re-exposed as a typed value to callers outside this
// process — the transport layer (cmd/larikd) calls this on every command
// result before it crosses the wire.
func StringifyError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RunScheduledSweepNow implements a manual "archive now" escape hatch:
// the same auto-archive + retention sweep the background scheduler runs
// hourly, invoked synchronously on demand.
func (s *Service) RunScheduledSweepNow(ctx context.Context) {
	s.scheduler.RunOnce(ctx)
}
