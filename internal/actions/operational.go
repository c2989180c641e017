package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/catalog"
	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/stageapi"
)

// OperationalAction is a one-shot call that only reports success or failure
// to the operator log.
type OperationalAction struct {
	op     catalog.Operation
	client stageapi.Poster
	sink   *logsink.Sink
	logger zerolog.Logger
}

// Operation returns the descriptor.
func (o *OperationalAction) Operation() catalog.Operation { return o.op }

// ID returns the operation id.
func (o *OperationalAction) ID() string { return o.op.ID }

// Label returns the display label.
func (o *OperationalAction) Label() string { return o.op.Label }

// NeedsInput reports whether the operation takes operator text.
func (o *OperationalAction) NeedsInput() bool { return o.op.Prompt != "" }

// Execute performs the call without operator input.
func (o *OperationalAction) Execute(ctx context.Context) error {
	return o.ExecuteWith(ctx, "")
}

// ExecuteWith performs the call. For operations with a prompt, text is sent
// as {"query": text} and must not be blank.
func (o *OperationalAction) ExecuteWith(ctx context.Context, text string) error {
	o.sink.Log(logsink.SymbolDispatch, o.op.Label)
	if o.client == nil {
		return o.fail("no backend client configured")
	}

	var (
		resp stageapi.Response
		err  error
	)
	switch {
	case o.NeedsInput():
		text = strings.TrimSpace(text)
		if text == "" {
			return o.fail("query is empty")
		}
		resp, err = o.client.PostJSON(ctx, o.op.Endpoint, map[string]string{"query": text})
	case o.op.Stream:
		resp, err = o.client.Post(ctx, o.op.Endpoint, o.op.Label)
	default:
		resp, err = o.client.PostJSON(ctx, o.op.Endpoint, nil)
	}
	if err != nil {
		return o.fail(err.Error())
	}
	if !resp.OK() {
		msg := resp.Body.Message()
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.HTTPStatus)
		}
		return o.fail(msg)
	}
	if resp.Body != nil && strings.EqualFold(strings.TrimSpace(string(resp.Body.Status)), "error") {
		msg := resp.Body.Message()
		if msg == "" {
			msg = "backend reported status error"
		}
		return o.fail(msg)
	}

	// Unparseable bodies are fine here: nothing is tracked beyond success.
	answer := resp.Body.Answer()
	if answer == "" && resp.ParseErr != nil && !o.op.Stream {
		answer = strings.TrimSpace(resp.Raw)
	}
	if answer != "" {
		o.sink.Log(logsink.SymbolSuccess, o.op.Label+": "+answer)
	} else {
		o.sink.Log(logsink.SymbolSuccess, o.op.Label)
	}
	o.logger.Debug().Str("operation", o.op.ID).Int("status", resp.HTTPStatus).Msg("operation succeeded")
	return nil
}

func (o *OperationalAction) fail(msg string) error {
	o.sink.Log(logsink.SymbolFailure, o.op.Label+": "+msg)
	o.logger.Warn().Str("operation", o.op.ID).Str("error", msg).Msg("operation failed")
	return &FailureError{ID: o.op.ID, Label: o.op.Label, Message: msg}
}
