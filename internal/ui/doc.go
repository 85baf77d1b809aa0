// Package ui provides the terminal user interface for brickguide.
//
// # Architecture Overview
//
// The UI is a single bubbletea program. Model mirrors the user's inputs
// (image, sample mode, options) and forwards every change to a Controller,
// which owns the requests. Everything the requests produce is read back from
// state.Store snapshots on a short tick, so the UI never waits on the
// network and never decides which result is current.
//
// # Package Structure
//
//   - ui.go: Controller, Options and Run
//   - model.go: Model state, key handling and commands
//   - view.go: rendering of the header, mosaic, side panel and steps
//   - keys.go: key bindings and help groups for bubbles/help
//   - theme.go: Dracula and Slate themes as lipgloss styles
//   - style_helpers.go: background-safe rendering and color swatches
//
// # Layout
//
//	┌ header: status badge, spinner, image or sample, API address ┐
//	│ image input, retry notice, or current options               │
//	├ mosaic ─────────────────────────────┬ options ──────────────┤
//	│                                     │ summary               │
//	│                                     │ palette with shares   │
//	│                                     │ tips                  │
//	├ steps (scrollable viewport) ────────┴───────────────────────┤
//	│ error message                                                │
//	└ help ────────────────────────────────────────────────────────┘
//
// # Event Flow
//
//  1. Run builds the Model and starts the program.
//  2. Analyze and step keys return a tea.Cmd that blocks on the Controller
//     in a bubbletea goroutine and reports the sequencer outcome.
//  3. Input keys call the Controller synchronously. The Controller cancels
//     work in flight and clears the store, so stale guides disappear at once.
//  4. A tick re-reads the store; the steps viewport re-renders only when
//     the snapshot changed.
//
// # Mosaic Rendering
//
// Each brick is two terminal columns wide so cells look square. Zoom
// repeats cells through grid.Scale and is clamped with grid.ClampZoom to
// the room left next to the side panel and above the steps panel. Runs of
// one color are drawn as a single styled segment.
//
// # Preferences
//
// Theme, sample mode and options are written to the prefs file whenever
// they change. Failures are logged and otherwise ignored.
//
// # Testing Considerations
//
// Model is a plain value. Tests build it with New, feed it tea.KeyMsg and
// tea.WindowSizeMsg values through Update, and inspect the fake controller
// and the rendered View. Commands that would block are invoked directly.
package ui
