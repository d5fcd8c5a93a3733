// Package audit records security-relevant actions (logins, logouts and event
// mutations) as structured log entries.
package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	ActionLogin       = "auth.login"
	ActionLoginFailed = "auth.login_failed"
	ActionLogout      = "auth.logout"
	ActionEventCreate = "event.create"
	ActionEventUpdate = "event.update"
	ActionEventDelete = "event.delete"
	ActionEventFavor  = "event.favorite"

	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor,omitempty"`
	ResourceID string            `json:"resource_id,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	Status     string            `json:"status"`
	Details    map[string]string `json:"details,omitempty"`
}

// Logger writes audit entries through zerolog under an "audit" key.
type Logger struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
		now:    time.Now,
	}
}

// Log writes an audit entry. A nil Logger drops the entry.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}

	event := l.logger.Info()
	if entry.Status == StatusFailure {
		event = l.logger.Warn()
	}
	event.Interface("audit", entry).Msg(entry.Action)
}

// LogRequest logs an action taken by actor during r. Actor is the user id, or
// the submitted email for failed logins.
func (l *Logger) LogRequest(r *http.Request, action, actor, resourceID, status string, details map[string]string) {
	l.Log(Entry{
		Action:     action,
		Actor:      actor,
		ResourceID: resourceID,
		IPAddress:  remoteIP(r),
		Status:     status,
		Details:    details,
	})
}

// remoteIP uses the connection address only; forwarded headers are not trusted here.
func remoteIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
