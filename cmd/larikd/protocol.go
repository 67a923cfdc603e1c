package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/dwifuady/larik/internal/command"
)

// request is one line of the stdio protocol: a command name plus its
// JSON-encoded parameters, grounded on the object-per-line shape used
// by the teacher pack's own stdin JSON consumers (e.g.
// steveyegge-beads' gate session reader).
type request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// response carries either a result or a stringified error, never both.
type response struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// notification carries one Service event (export progress, etc.) to the
// same stdout stream the responses are written to, distinguished by the
// presence of "event" instead of "id".
type notification struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// runLoop decodes one JSON request object per Decode call from r,
// dispatches it against svc, and writes one JSON response object to w.
// It returns when r is exhausted or ctx is cancelled.
func runLoop(ctx context.Context, svc *command.Service, r io.Reader, w io.Writer) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	enc := json.NewEncoder(w)

	for {
		if ctx.Err() != nil {
			return nil
		}

		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		result, err := dispatch(ctx, svc, req.Command, req.Params)
		resp := response{ID: req.ID}
		if err != nil {
			resp.Error = command.StringifyError(err)
		} else {
			resp.Result = result
		}
		if encErr := enc.Encode(resp); encErr != nil {
			return encErr
		}
		if errors.Is(err, command.ErrRestartRequired) {
			return command.ErrRestartRequired
		}
	}
}

// relayEvents drains svc.Events() and writes each as a notification
// line until ctx is cancelled; it shares stdout with runLoop's
// responses, each write being one complete JSON value so interleaving
// is safe for any line-oriented reader on the other end.
func relayEvents(ctx context.Context, svc *command.Service, w io.Writer) {
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-svc.Events():
			if !ok {
				return
			}
			_ = enc.Encode(notification{Event: ev.Name, Payload: ev.Payload})
		}
	}
}
