// Package stageapi provides the HTTP client for the mission backend.
//
// # Endpoints
//
//   - POST /alpha/<stage-id>: parameterless stage actions. The body may be
//     preceded by streamed progress text and ends with a JSON object (or
//     nothing at all).
//   - POST /start_ignition, /memory/query, /handover: operational calls.
//
// # Streaming
//
// Post reads the response as it arrives. Complete lines are trimmed and every
// non-blank line is handed to the configured LineSink tagged with the action
// label, so operators see progress before the call resolves. A line split
// across reads is carried until its terminator (or end of stream) arrives.
//
// Once the stream ends the full text is parsed exactly once. A parse failure
// is reported in Response.ParseErr rather than as an error: the caller decides
// how to record it. The error return is reserved for transport failures.
//
// # Retries and timeouts
//
// There are none. Each call issues exactly one request, and stage calls run
// until the backend finishes or the context is cancelled.
//
// # Payload
//
// Payload has a typed slot for every field the backend is known to send.
// Scalars decode leniently through Text, and unrecognized keys are kept in
// Payload.Extra.
package stageapi
