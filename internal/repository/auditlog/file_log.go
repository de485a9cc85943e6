// Package auditlog appends accepted submissions to monthly text files.
package auditlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"portfolio-backend/internal/domain"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// FileLog writes one line per entry to <dir>/YYYY-MM.log.
type FileLog struct {
	dir string
	loc *time.Location
	mu  sync.Mutex
}

func NewFileLog(dir string, loc *time.Location) *FileLog {
	if loc == nil {
		loc = time.UTC
	}
	return &FileLog{dir: dir, loc: loc}
}

func (l *FileLog) Append(_ context.Context, entry domain.AuditLogEntry) error {
	ts := entry.Timestamp.In(l.loc)
	line := FormatLine(entry, l.loc)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit log dir: %w", err)
	}

	path := filepath.Join(l.dir, ts.Format("2006-01")+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return f.Close()
}

// FormatLine renders "[YYYY-MM-DD HH:MM:SS] Name <email> - prefix...\n".
// Line breaks in every field are flattened so one entry stays one line.
func FormatLine(entry domain.AuditLogEntry, loc *time.Location) string {
	return fmt.Sprintf("[%s] %s <%s> - %s...\n",
		entry.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
		lineBreaks.Replace(entry.Name),
		lineBreaks.Replace(entry.Email),
		lineBreaks.Replace(entry.MessagePrefix),
	)
}
