// Package state provides thread-safe state shared between request
// goroutines and the UI.
//
// # Overview
//
// Analysis and step generation run in their own goroutines. When an attempt
// finishes, the app session writes the outcome here, and the UI reads a
// Snapshot on every render. The Store is the only place results land.
//
// # Who Writes
//
// The session calls the Store only from inside sequencer.Resolve or
// sequencer.Report, so the write happens in the same critical section as the
// check that the attempt is still the newest one. A superseded attempt can
// therefore never overwrite a newer result, even if it finishes last.
//
//	Request goroutine:              UI:
//	┌────────────────────┐         ┌──────────────────┐
//	│ client.Analyze()   │         │                  │
//	│       ↓            │         │                  │
//	│ seq.Resolve(t, fn) │         │                  │
//	│   fn: SetGuide()   │────────→│ store.Snapshot() │
//	└────────────────────┘ (mutex) └──────────────────┘
//
// # Update Semantics
//
//   - BeginAnalysis: status running; steps from the previous guide are dropped
//   - SetGuide: status done; the render grid is rebuilt from the payload
//   - FailAnalysis: status error; the previous guide stays visible
//   - Clear: an input changed; guide, steps and errors are forgotten
//
// Cancellations are never recorded as errors. A cancelled attempt was
// either superseded or abandoned on purpose, and the user already knows.
//
// # Defensive Copying
//
// Snapshot copies the step slice, the grid cells, the retry record and the
// error values so the UI can hold a snapshot while new results arrive.
// Payloads are shared; they are never modified after decoding.
//
// # Testing Considerations
//
// The zero Store is ready to use and reports idle for both operations.
package state
