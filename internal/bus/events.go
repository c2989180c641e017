package bus

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/results"
)

// TopicEvents carries operator log and result changes.
const TopicEvents = "stagehand.events"

const (
	TypeLogAppended   = "log.appended"
	TypeResultChanged = "result.changed"
)

// LogAppended reports that the operator log grew to Total lines.
type LogAppended struct {
	Total int `json:"total"`
}

// ResultChanged reports a stored StageResult write.
type ResultChanged struct {
	Group      string         `json:"group"`
	ID         string         `json:"id"`
	Status     results.Status `json:"status"`
	Generation uint64         `json:"generation"`
}

// LogRelay publishes operator log growth with at most one undelivered event
// in flight, so a chatty stream cannot fill the bus.
type LogRelay struct {
	bus     *Bus
	logger  zerolog.Logger
	pending atomic.Bool
}

// NewLogRelay builds a relay publishing on b.
func NewLogRelay(b *Bus, logger zerolog.Logger) *LogRelay {
	return &LogRelay{bus: b, logger: logger}
}

// Observe is a logsink observer.
func (r *LogRelay) Observe(total int) {
	if !r.pending.CompareAndSwap(false, true) {
		return
	}
	if err := r.bus.Publish(TopicEvents, TypeLogAppended, LogAppended{Total: total}); err != nil {
		r.pending.Store(false)
		r.logger.Warn().Err(err).Msg("publish log event")
	}
}

// Delivered re-arms the relay once the consumer has taken the last event.
func (r *LogRelay) Delivered() {
	r.pending.Store(false)
}

// ResultHook returns a results change hook that publishes on b.
func ResultHook(b *Bus, logger zerolog.Logger) func(results.Change) {
	return func(c results.Change) {
		ev := ResultChanged{Group: c.Group, ID: c.ID, Status: c.Result.Status, Generation: c.Result.Generation}
		if err := b.Publish(TopicEvents, TypeResultChanged, ev); err != nil {
			logger.Warn().Err(err).Str("id", c.ID).Msg("publish result event")
		}
	}
}
