package ui

import (
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/bus"
)

// Sender is the part of *tea.Program the forwarder needs.
type Sender interface {
	Send(msg tea.Msg)
}

// RegisterForwarder routes bus events into the program. relay, when set, is
// re-armed once each log event has been handed to the update loop.
func RegisterForwarder(b *bus.Bus, p Sender, relay *bus.LogRelay, logger zerolog.Logger) {
	b.AddHandler("stagehand-ui-forward", bus.TopicEvents, func(msg *message.Message) error {
		defer msg.Ack()

		env, err := bus.ParseEnvelope(msg.Payload)
		if err != nil {
			logger.Warn().Err(err).Msg("drop ui event")
			return nil
		}
		if env.Type == bus.TypeLogAppended && relay != nil {
			defer relay.Delivered()
		}

		out, err := translate(env)
		if err != nil {
			logger.Warn().Err(err).Str("type", env.Type).Msg("drop ui event")
			return nil
		}
		if out != nil {
			p.Send(out)
		}
		return nil
	})
}

// translate turns a bus envelope into a model message. Unknown types map to
// nil.
func translate(env bus.Envelope) (tea.Msg, error) {
	switch env.Type {
	case bus.TypeLogAppended:
		var ev bus.LogAppended
		if err := env.Decode(&ev); err != nil {
			return nil, err
		}
		return LogAppendedMsg{Total: ev.Total}, nil
	case bus.TypeResultChanged:
		var ev bus.ResultChanged
		if err := env.Decode(&ev); err != nil {
			return nil, err
		}
		if ev.ID == "" {
			return nil, errors.New("result event without id")
		}
		return ResultChangedMsg{Group: ev.Group, ID: ev.ID, Status: ev.Status, Generation: ev.Generation}, nil
	}
	return nil, nil
}
