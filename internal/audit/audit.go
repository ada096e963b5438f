// Package audit implements C12: the session-scoped, append-only,
// pipe-delimited audit log of every PV write the runtime performs
// (§4.9), grounded directly on original_source/qtedm/audit_logger.cc.
package audit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const logDirName = ".medm"

// Record is one parsed audit log line (§3 AuditRecord).
type Record struct {
	Timestamp   string
	User        string
	WidgetType  string
	PVName      string
	Value       string
	DisplayFile string
}

// Logger is C12. Construct with New; it lazily creates ~/.medm/ and the
// session's log file on the first successful write, matching the
// original's ensureLogFileOpen.
type Logger struct {
	mu sync.Mutex

	enabled     bool
	user        string
	sessionAt   time.Time
	displayFile string

	path string
	file *os.File
	w    *bufio.Writer
}

// New constructs a Logger. enabled=false makes LogPut a no-op (the
// `-nolog`/`QTEDM_NOLOG=1` path, §6).
func New(enabled bool, displayFile string) *Logger {
	return &Logger{
		enabled:     enabled,
		user:        currentUser(),
		sessionAt:   time.Now(),
		displayFile: displayFile,
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	if v := os.Getenv("USERNAME"); v != "" {
		return v
	}
	return "unknown"
}

func logDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, logDirName), nil
}

func (l *Logger) logFilePath() (string, error) {
	dir, err := logDirectory()
	if err != nil {
		return "", err
	}
	stamp := l.sessionAt.Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("audit_%s_%d.log", stamp, os.Getpid())), nil
}

func (l *Logger) ensureOpenLocked() error {
	if l.file != nil {
		return nil
	}
	dir, err := logDirectory()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path, err := l.logFilePath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	l.path = path
	l.file = f
	l.w = bufio.NewWriter(f)

	fmt.Fprintf(l.w, "# QtEDM Audit Log\n")
	fmt.Fprintf(l.w, "# Session started: %s\n", l.sessionAt.Format(time.RFC3339))
	fmt.Fprintf(l.w, "# User: %s\n", l.user)
	fmt.Fprintf(l.w, "# Format: timestamp|user|widgetType|pvName|value|displayFile\n")
	return l.w.Flush()
}

// SetDisplayFile updates the display-file field future LogPut calls
// record, without reopening or re-headering the session's log file
// (§4.9: the log is per-session, not per-display).
func (l *Logger) SetDisplayFile(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.displayFile = path
}

// LogPut implements the put-path audit record (§4.9, S6). pvName and
// widgetType come verbatim from the widget issuing the write; value is
// already formatted as a string by the caller (internal/channel's put
// helpers).
func (l *Logger) LogPut(pvName, widgetType, value string) {
	if !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureOpenLocked(); err != nil {
		return
	}

	display := l.displayFile
	if display == "" {
		display = "-"
	}
	fmt.Fprintf(l.w, "%s|%s|%s|%s|%s|%s\n",
		time.Now().UTC().Format("2006-01-02T15:04:05"),
		l.user, widgetType, pvName, escape(value), display)
	l.w.Flush()
}

// escape applies §4.9's value-field escaping: |, \n, \r become \|, \n, \r.
func escape(v string) string {
	r := strings.NewReplacer("|", `\|`, "\n", `\n`, "\r", `\r`)
	return r.Replace(v)
}

// unescape reverses escape, used by Parse to read a log back.
func unescape(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case '|':
				b.WriteByte('|')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 'r':
				b.WriteByte('\r')
				i++
				continue
			}
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// Close flushes and closes the underlying file, if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.w.Flush()
	err := l.file.Close()
	l.file, l.w = nil, nil
	return err
}

// Path returns the log file path once it has been opened, or "".
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// splitUnescaped splits line into at most maxFields fields on '|', but
// treats a backslash-escaped pipe (`\|`) as part of a field rather than a
// delimiter — only the value field is ever escaped (see escape), but the
// split itself must not know that to stay correct.
func splitUnescaped(line string, maxFields int) []string {
	var fields []string
	var cur strings.Builder
	i := 0
	for i < len(line) && len(fields) < maxFields-1 {
		ch := line[i]
		if ch == '\\' && i+1 < len(line) {
			cur.WriteByte(ch)
			cur.WriteByte(line[i+1])
			i += 2
			continue
		}
		if ch == '|' {
			fields = append(fields, cur.String())
			cur.Reset()
			i++
			continue
		}
		cur.WriteByte(ch)
		i++
	}
	cur.WriteString(line[i:])
	fields = append(fields, cur.String())
	return fields
}

// Parse reads an audit log (as written by LogPut) back into Records,
// skipping comment/header lines. This is the `qtedm audit show` parse-back
// format (SPEC_FULL.md supplemented feature), confirming the escaping
// round-trips per §8's "Audit(put(pv,v))" law.
func Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitUnescaped(line, 6)
		if len(fields) != 6 {
			continue
		}
		records = append(records, Record{
			Timestamp:   fields[0],
			User:        fields[1],
			WidgetType:  fields[2],
			PVName:      fields[3],
			Value:       unescape(fields[4]),
			DisplayFile: fields[5],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
