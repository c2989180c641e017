// Package bus is the in-process event bus between the orchestrator and the
// UI. Operator log growth and result changes are published as JSON envelopes
// on TopicEvents; the UI forwards them into the bubbletea program.
package bus
