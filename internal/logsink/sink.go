package logsink

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Symbol tags a log line with the kind of event it describes.
type Symbol string

const (
	SymbolNone     Symbol = ""
	SymbolDispatch Symbol = "▶"
	SymbolSuccess  Symbol = "✅"
	SymbolFailure  Symbol = "❌"
	SymbolChunk    Symbol = "│"
)

// TimestampLayout is the ISO-8601 layout used for every tagged line.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in the operator log timestamp format (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Entry is a single line in the operator log.
type Entry struct {
	Time   time.Time
	Symbol Symbol
	Text   string
}

// String renders the entry without its line terminator. Untagged entries are
// rendered verbatim.
func (e Entry) String() string {
	if e.Symbol == SymbolNone {
		return e.Text
	}
	return fmt.Sprintf("[%s] %s %s", FormatTime(e.Time), e.Symbol, e.Text)
}

// Sink is the process-wide append-only operator log. Every call appends
// atomically: lines from one call are never interleaved with another call.
// A nil *Sink accepts and discards everything.
type Sink struct {
	mu        sync.Mutex
	entries   []Entry
	mirror    io.Writer
	observers []func(total int)

	now    func() time.Time
	logger zerolog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithMirror copies every appended line to w (typically the operator log file).
func WithMirror(w io.Writer) Option {
	return func(s *Sink) { s.mirror = w }
}

// WithClock overrides the time source used for tagged lines.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sink) { s.logger = logger }
}

// New builds an empty Sink.
func New(opts ...Option) *Sink {
	s := &Sink{
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnAppend registers fn to be called with the new line count after every
// append. Observers run outside the buffer lock.
func (s *Sink) OnAppend(fn func(total int)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Append adds one or more untagged lines. Each line is normalized to end with
// exactly one terminator; embedded newlines produce separate lines.
func (s *Sink) Append(lines ...string) {
	if s == nil || len(lines) == 0 {
		return
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		for _, part := range splitLines(line) {
			entries = append(entries, Entry{Text: part})
		}
	}
	s.write(entries)
}

// Block appends a multi-line block in a single atomic write.
func (s *Sink) Block(lines []string) {
	s.Append(lines...)
}

// Log appends one tagged, timestamped line.
func (s *Sink) Log(symbol Symbol, text string) {
	if s == nil {
		return
	}
	at := s.now()
	parts := splitLines(text)
	entries := make([]Entry, 0, len(parts))
	for i, part := range parts {
		if i == 0 {
			entries = append(entries, Entry{Time: at, Symbol: symbol, Text: part})
			continue
		}
		entries = append(entries, Entry{Text: "  " + part})
	}
	s.write(entries)
}

// Chunk records one line of streamed output for the action labelled label.
func (s *Sink) Chunk(label, line string) {
	s.Log(SymbolChunk, label+" │ "+line)
}

func (s *Sink) write(entries []Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, entries...)
	if s.mirror != nil {
		var b strings.Builder
		for _, e := range entries {
			b.WriteString(e.String())
			b.WriteByte('\n')
		}
		if _, err := io.WriteString(s.mirror, b.String()); err != nil {
			s.logger.Warn().Err(err).Msg("operator log mirror disabled")
			s.mirror = nil
		}
	}
	total := len(s.entries)
	observers := s.observers
	s.mu.Unlock()

	for _, fn := range observers {
		fn(total)
	}
}

// Len returns the number of lines in the buffer.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of every entry.
func (s *Sink) Entries() []Entry {
	return s.Since(0)
}

// Since returns a copy of the entries appended after the first n.
func (s *Sink) Since(n int) []Entry {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n >= len(s.entries) {
		return nil
	}
	dup := make([]Entry, len(s.entries)-n)
	copy(dup, s.entries[n:])
	return dup
}

// Lines renders every entry without terminators.
func (s *Sink) Lines() []string {
	entries := s.Entries()
	if len(entries) == 0 {
		return nil
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Text renders the visible buffer: every line followed by exactly one newline.
func (s *Sink) Text() string {
	var b strings.Builder
	for _, line := range s.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
