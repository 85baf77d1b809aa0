// Package app provides the orchestration layer for brickguide.
//
// # Overview
//
// This package wires together configuration, preferences, the guide client,
// state management and the UI. It serves as the composition root where all
// dependencies are initialized and connected.
//
// # Components
//
//   - app.go: Run, which loads settings and starts the TUI
//   - session.go: Session, which turns user actions into sequenced requests
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()      Read config, fail on a bad service address
//	       ├─────> prefs.Load()       Theme, sample mode, saved options
//	       ├─────> guide.NewClient()  HTTP client with retries
//	       ├─────> state.Store{}      Shared state container
//	       ├─────> NewSession()       Sequenced operations
//	       └─────> ui.Run()           Start TUI (blocks)
//
//	Analysis (runs in a tea.Cmd goroutine):
//	┌──────────────────────────────────────────────┐
//	│ Session.Analyze()                            │
//	│  ├─> steps.Cancel()       old steps are void │
//	│  ├─> analysis.Begin()     aborts the last one│
//	│  ├─> client.Analyze()     retries inside     │
//	│  └─> analysis.Resolve()   store only if newest│
//	└──────────────────────────────────────────────┘
//
// # Input Changes
//
// Choosing another image, toggling sample mode, changing any option and
// Reset all cancel both sequencers and clear the store. Results computed
// for the old inputs can therefore never appear next to the new ones.
//
// After an analysis succeeds its id is remembered. A re-run with different
// options sends the id instead of uploading the image again, and falls back
// to the upload when the service answers 404 or 410.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid, or no usable service address
//   - Guide client initialization failure
//
// Recoverable errors (stored for display, logged):
//   - Every request failure, already normalized by the guide package
//   - Missing image, or steps requested without a guide
//
// Cancellations are logged only when a superseded result is discarded and
// never reach the store.
package app
