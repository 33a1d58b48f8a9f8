package logger

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"
)

// LogEntry is one parsed line of a category file
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Category  LogCategory            `json:"category"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader reads the files written by MultiLogger
type LogReader struct {
	logsDir      string
	pollInterval time.Duration // how often TailLogs looks for new lines
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{logsDir: logsDir, pollInterval: 100 * time.Millisecond}
}

// ReadLogs returns the last limit entries of a category for the given day.
// A limit of 0 returns every entry; a missing file yields no entries.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	file, err := os.Open(LogPath(lr.logsDir, category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []LogEntry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, parseEntry(category, line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return tail(entries, limit), nil
}

// SearchLogs returns the entries whose message, level or fields contain query
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(category, date, 0)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	filtered := []LogEntry{}
	for _, entry := range entries {
		if entry.matches(query) {
			filtered = append(filtered, entry)
		}
	}
	return tail(filtered, limit), nil
}

// TailLogs follows the file of a category for the given day and sends its
// entries until ctx is done. The last backlog entries already in the file are
// sent first. A file that does not exist yet is waited for and read from its
// start once it appears.
func (lr *LogReader) TailLogs(ctx context.Context, category LogCategory, date time.Time, backlog int, entries chan<- LogEntry) error {
	ticker := time.NewTicker(lr.pollInterval)
	defer ticker.Stop()

	path := LogPath(lr.logsDir, category, date)
	var (
		file    *os.File
		reader  *bufio.Reader
		partial string
	)
	defer func() {
		if file != nil {
			file.Close()
		}
	}()

	for first := true; ; first = false {
		if file == nil {
			f, err := os.Open(path)
			switch {
			case err == nil:
				file, reader = f, bufio.NewReader(f)
			case !os.IsNotExist(err):
				return err
			}
		}

		if reader != nil {
			pending, rest, err := readLines(reader, category, partial)
			if err != nil {
				return err
			}
			partial = rest
			if first {
				pending = tail(pending, backlog)
				if backlog <= 0 {
					pending = nil
				}
			}
			for _, entry := range pending {
				select {
				case entries <- entry:
				case <-ctx.Done():
					return nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readLines parses the complete lines available in r. prefix is the
// unterminated text left by the previous call; the new one is returned.
func readLines(r *bufio.Reader, category LogCategory, prefix string) ([]LogEntry, string, error) {
	var entries []LogEntry
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			return entries, prefix + line, nil
		}
		if err != nil {
			return nil, "", err
		}

		line = strings.TrimSpace(prefix + line)
		prefix = ""
		if line != "" {
			entries = append(entries, parseEntry(category, line))
		}
	}
}

func (e LogEntry) matches(query string) bool {
	if strings.Contains(strings.ToLower(e.Message), query) ||
		strings.Contains(strings.ToLower(e.Level), query) {
		return true
	}
	for _, v := range e.Fields {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// parseEntry decodes a JSON line; anything else becomes a plain info message
func parseEntry(category LogCategory, line string) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{Level: "info", Message: line, Category: category}
	}

	entry := LogEntry{Category: category}
	entry.Timestamp, _ = raw["ts"].(string)
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	delete(raw, "ts")
	delete(raw, "level")
	delete(raw, "msg")
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry
}

func tail(entries []LogEntry, limit int) []LogEntry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}
