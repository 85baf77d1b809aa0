package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// stdLayout matches the date and time the standard logger writes with
// log.LstdFlags.
const stdLayout = "2006/01/02 15:04:05"

// Entry is one parsed log line.
type Entry struct {
	Time    time.Time // zero when the line carries no timestamp
	Message string
	Problem bool // the line reports a failure
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Parse splits a line written by the standard logger. A single-word prefix
// before the timestamp is dropped. Lines in other formats keep their text
// and a zero time.
func Parse(line string) Entry {
	line = strings.TrimRight(line, "\r")
	candidates := []string{line}
	if i := strings.IndexByte(line, ' '); i > 0 {
		candidates = append(candidates, line[i+1:])
	}
	for _, rest := range candidates {
		if len(rest) < len(stdLayout) {
			continue
		}
		ts, err := time.ParseInLocation(stdLayout, rest[:len(stdLayout)], time.Local)
		if err != nil {
			continue
		}
		msg := strings.TrimSpace(rest[len(stdLayout):])
		return Entry{Time: ts, Message: msg, Problem: isProblem(msg)}
	}
	return Entry{Message: line, Problem: isProblem(line)}
}

// Tail reads and parses the last maxLines lines of the file at path. Blank
// lines are skipped.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

func isProblem(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, " failed") || strings.Contains(lower, "error")
}
