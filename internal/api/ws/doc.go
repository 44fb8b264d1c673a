// Package ws streams supervisor lifecycle events to websocket clients.
//
// The Hub is installed as the supervisor's event sink. Events arrive while
// the supervisor lock is held, so Publish encodes each event once with sonic
// and hands the frame to every subscriber without blocking. A subscriber
// that falls behind its buffer loses events; the drop is counted in
// supervisor_events_dropped_total.
//
// Client frames:
//   - {"type":"ping"} answered with {"type":"pong"}
//
// Server frames:
//   - {"type":"system"} on subscribe
//   - {"type":"event","event":{...}} per lifecycle event
package ws
