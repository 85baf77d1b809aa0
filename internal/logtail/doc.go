// Package logtail reads the end of the brickguide log file for the in-app
// log panel.
//
// # Overview
//
// The TUI owns the terminal, so the application logs to a file. This
// package reads the last lines of that file and splits each into its
// timestamp and message, so the UI can show recent activity (retries,
// superseded results, failures) without leaving the program.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries while scanning the file once:
//
//   - Memory is O(maxLines), not O(file size)
//   - Lines come back in file order
//   - A missing file is not an error; nothing has been logged yet
//
// Example usage:
//
//	entries, err := logtail.Tail(cfg.LogFile, 200)
//	if err != nil {
//		log.Printf("read log: %v", err)
//	}
//
// # Line Format
//
// Lines are expected in the standard logger's format with an optional
// single-word prefix, as written by tea.LogToFile:
//
//	brickguide 2026/10/18 14:03:22 analysis #3 failed: service unavailable
//
// Lines that do not match keep their full text and a zero Time. Problem is
// set for lines that report a failure or an error, so the panel can
// highlight them.
//
// # Testing Considerations
//
// Tests write temporary files and compare parsed entries; Parse is pure and
// needs no files.
package logtail
