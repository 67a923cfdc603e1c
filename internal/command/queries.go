package command

import (
	"context"

	"github.com/dwifuady/larik/internal/model"
)

// ExecuteQuery implements execute_query.
func (s *Service) ExecuteQuery(ctx context.Context, connectionID, script, database string) ([]model.QueryResult, error) {
	return s.queries.Execute(ctx, connectionID, script, database)
}

// ExecuteSelection runs a single already-isolated chunk of SQL, the way
// a client executes a user's current text selection rather than the
// whole script.
func (s *Service) ExecuteSelection(ctx context.Context, connectionID, text, database string) (model.QueryResult, error) {
	return s.queries.ExecuteSelection(ctx, connectionID, text, database)
}

// CancelQuery implements cancel_query.
func (s *Service) CancelQuery(connectionID, queryID string) bool {
	return s.queries.CancelQuery(connectionID, queryID)
}

// CancelQueriesForConnection implements cancel_queries_for_connection.
func (s *Service) CancelQueriesForConnection(connectionID string) int {
	return s.queries.CancelAllForConnection(connectionID)
}

// GetQueryStatus implements get_query_status.
func (s *Service) GetQueryStatus(queryID string) model.QueryStatus {
	return s.queries.Status(queryID)
}
