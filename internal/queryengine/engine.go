// Package queryengine is the query engine (C7): it splits a script into
// per-dialect statements, auto-wraps bare SQL Server procedure calls,
// executes each statement in order while tracking it for cancellation,
// and normalizes results.
//
// Grounded on the teacher's internal/apply.Applier: its
// applyWithTransaction/applyWithoutTransaction per-statement loop (fresh
// time.Now()/time.Since timing, stop-on-first-failure) is generalized
// here from "run a migration once" to "run a tracked, cancellable
// statement against a pooled driver connection".
package queryengine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dwifuady/larik/internal/applog"
	"github.com/dwifuady/larik/internal/connmgr"
	"github.com/dwifuady/larik/internal/driver"
	"github.com/dwifuady/larik/internal/metrics"
	"github.com/dwifuady/larik/internal/model"
)

// Engine is the query engine. It holds the unified connection manager
// (a one-way dependency: the manager never references the engine).
type Engine struct {
	mgr *connmgr.Manager
	log zerolog.Logger

	mu         sync.Mutex
	active     map[string]*tracked
	lastStatus map[string]model.QueryStatus
}

type tracked struct {
	connectionID  string
	statementText string
	startedAt     time.Time
	status        model.QueryStatus
	cancel        context.CancelFunc
	cancelFired   bool
}

// New constructs an Engine bound to mgr.
func New(mgr *connmgr.Manager) *Engine {
	return &Engine{
		mgr:        mgr,
		log:        applog.WithComponent("queryengine"),
		active:     make(map[string]*tracked),
		lastStatus: make(map[string]model.QueryStatus),
	}
}

// Execute splits script per connectionID's dialect, auto-EXEC-wraps
// (SQL Server only), and executes each statement strictly sequentially,
// returning one QueryResult per statement. A batch stops at the first
// connection-level error (spec.md §4.6); per-statement server errors are
// returned as ordinary results with Error set, and execution continues.
func (e *Engine) Execute(ctx context.Context, connectionID, script, database string) ([]model.QueryResult, error) {
	cfg, ok := e.mgr.Config(connectionID)
	if !ok {
		return nil, driver.New(driver.KindConnectionNotFound, "unknown connection id "+connectionID, nil)
	}

	statements := split(cfg.Dialect, script)
	if cfg.Dialect == model.DialectMSSQL {
		for i, stmt := range statements {
			statements[i] = autoExecWrap(stmt)
		}
	}

	results := make([]model.QueryResult, 0, len(statements))
	for i, stmt := range statements {
		idx := i
		result, err := e.executeOne(ctx, connectionID, database, stmt, &idx)
		if err != nil {
			if isConnectionLevel(err) {
				return results, err
			}
			result = model.QueryResult{
				QueryID:        uuid.NewString(),
				StatementIndex: &idx,
				StatementText:  stmt,
				Error:          err.Error(),
				IsComplete:     true,
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// ExecuteSelection runs one already-isolated chunk of SQL (e.g. the
// user's current text selection) as a single statement, without
// re-splitting. Per SPEC_FULL.md §7's resolution of the open question,
// it inherits the same DECLARE/SET-implies-single-batch auto-EXEC
// suppression as a full script: a selection beginning with DECLARE or
// SET is never auto-EXEC-wrapped, matching what splitSQLServer already
// guarantees for the whole-script path.
func (e *Engine) ExecuteSelection(ctx context.Context, connectionID, text, database string) (model.QueryResult, error) {
	cfg, ok := e.mgr.Config(connectionID)
	if !ok {
		return model.QueryResult{}, driver.New(driver.KindConnectionNotFound, "unknown connection id "+connectionID, nil)
	}
	stmt := strings.TrimSpace(text)
	if cfg.Dialect == model.DialectMSSQL && !firstKeywordIs(stmt, "DECLARE") && !firstKeywordIs(stmt, "SET") {
		stmt = autoExecWrap(stmt)
	}
	result, err := e.executeOne(ctx, connectionID, database, stmt, nil)
	if err != nil {
		return model.QueryResult{}, err
	}
	result.IsSelection = true
	return result, nil
}

func split(dialect model.Dialect, script string) []string {
	switch dialect {
	case model.DialectMSSQL:
		return splitSQLServer(script)
	case model.DialectPostgres:
		return splitPostgres(script)
	default:
		return splitSingle(script)
	}
}

// executeOne runs the execution protocol of spec.md §4.6 steps 1-8 for
// one statement.
func (e *Engine) executeOne(ctx context.Context, connectionID, database, stmt string, statementIndex *int) (model.QueryResult, error) {
	queryID := uuid.NewString()

	queryCtx, cancel := context.WithCancel(ctx)
	t := &tracked{
		connectionID:  connectionID,
		statementText: stmt,
		startedAt:     time.Now(),
		status:        model.QueryRunning,
		cancel:        cancel,
	}
	e.mu.Lock()
	e.active[queryID] = t
	e.mu.Unlock()
	metrics.QueriesActive.Inc()

	dialect := "unknown"
	if cfg, ok := e.mgr.Config(connectionID); ok {
		dialect = string(cfg.Dialect)
	}
	timer := metrics.NewTimer()

	defer func() {
		e.mu.Lock()
		e.lastStatus[queryID] = t.status
		delete(e.active, queryID)
		e.mu.Unlock()
		cancel()
		metrics.QueriesActive.Dec()
		timer.ObserveDurationVec(metrics.QueryDuration, dialect)
		metrics.QueriesTotal.WithLabelValues(dialect, string(t.status)).Inc()
	}()

	d, conn, err := e.mgr.Resolve(connectionID)
	if err != nil {
		t.status = model.QueryFailed
		return model.QueryResult{}, err
	}

	result, execErr := d.ExecuteQuery(queryCtx, conn, stmt, queryID, database)

	e.mu.Lock()
	cancelFired := t.cancelFired
	e.mu.Unlock()

	if execErr != nil {
		// cancelFired alone is enough: once a cancel was requested, any
		// resulting error (including a connection-reset from SQL
		// Server's dropped dedicated socket) is reported as a cancellation
		// rather than a generic failure, per spec.md §4.6 step 7.
		cancelled := cancelFired || errors.Is(execErr, context.Canceled) || isCancelledKind(execErr)
		if cancelled {
			t.status = model.QueryCancelled
			return model.QueryResult{
				QueryID:        queryID,
				StatementIndex: statementIndex,
				StatementText:  stmt,
				Error:          "Query cancelled",
				IsComplete:     true,
			}, nil
		}
		t.status = model.QueryFailed
		return model.QueryResult{}, execErr
	}

	t.status = model.QueryCompleted
	if statementIndex != nil {
		result.StatementIndex = statementIndex
	}
	return result, nil
}

func isCancelledKind(err error) bool {
	var derr *driver.Error
	if errors.As(err, &derr) {
		return derr.Kind == driver.KindCancelled
	}
	return false
}

// isConnectionLevel decides whether an error should terminate the whole
// batch (spec.md §4.6: "A batch stops on a connection-level error")
// rather than being folded into a single statement's result.
func isConnectionLevel(err error) bool {
	var derr *driver.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case driver.KindConnectionFailed, driver.KindConnectionNotFound,
			driver.KindInvalidConnection, driver.KindPoolError, driver.KindDriverNotFound:
			return true
		}
	}
	return false
}

// CancelQuery fires the one-shot cancel signal for queryID if it is
// tracked, marks it Cancelled, and also asks the dialect driver to tear
// down its dedicated cancellation path (SQL Server's dropped socket);
// other dialects' CancelQuery is a no-op there, since the context
// cancellation above already unblocks their ExecuteQuery call.
func (e *Engine) CancelQuery(connectionID, queryID string) bool {
	e.mu.Lock()
	t, ok := e.active[queryID]
	if ok {
		t.status = model.QueryCancelled
		t.cancelFired = true
		cancel := t.cancel
		e.mu.Unlock()
		cancel()
	} else {
		e.mu.Unlock()
	}

	if d, _, err := e.mgr.Resolve(connectionID); err == nil {
		d.CancelQuery(queryID)
	}
	return ok
}

// CancelAllForConnection cancels every currently Running tracked query
// for connectionID and returns how many were affected.
func (e *Engine) CancelAllForConnection(connectionID string) int {
	e.mu.Lock()
	var ids []string
	for id, t := range e.active {
		if t.connectionID == connectionID && t.status == model.QueryRunning {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()

	count := 0
	for _, id := range ids {
		if e.CancelQuery(connectionID, id) {
			count++
		}
	}
	return count
}

// Status reports the lifecycle state of a tracked query. Once a query
// finishes, its active-queries entry is removed per spec.md §4.6 step 8,
// but its terminal status is retained here so a caller that asks for
// status shortly after cancellation still observes Cancelled.
func (e *Engine) Status(queryID string) model.QueryStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.active[queryID]; ok {
		return t.status
	}
	if status, ok := e.lastStatus[queryID]; ok {
		return status
	}
	return model.QueryCompleted
}
