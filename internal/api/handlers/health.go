package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/metrics"
)

// HealthCheck is the /readyz response body.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	checkPass = "pass"
	checkFail = "fail"
)

type counter interface {
	Len() int
}

type eventCounter interface {
	Count() int
}

// HealthChecker reports readiness of the credential store and the event store.
type HealthChecker struct {
	users     counter
	events    eventCounter
	version   string
	gitCommit string
	now       func() time.Time
}

func NewHealthChecker(userStore counter, eventStore eventCounter, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		users:     userStore,
		events:    eventStore,
		version:   version,
		gitCommit: gitCommit,
		now:       time.Now,
	}
}

// Healthz is the liveness probe. It never touches dependencies.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz runs every check and answers 503 when one of them fails.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		default:
		}

		checks := map[string]CheckResult{
			"credentials": h.checkCredentials(),
			"event_store": h.checkEvents(),
		}

		overall := "healthy"
		statusCode := http.StatusOK
		for name, check := range checks {
			metrics.HealthCheckStatus.WithLabelValues(name).Set(checkValue(check.Status))
			if check.Status == checkFail {
				overall = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    overall,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		})
	})
}

func (h *HealthChecker) checkCredentials() CheckResult {
	if h.users == nil {
		return CheckResult{Status: checkFail, Message: "credential store not initialized"}
	}
	count := h.users.Len()
	if count == 0 {
		return CheckResult{
			Status:  checkFail,
			Message: "no users configured",
			Details: map[string]any{"remediation": "Set USERS_FILE or BOOTSTRAP_EMAIL and BOOTSTRAP_PASSWORD"},
		}
	}
	return CheckResult{Status: checkPass, Details: map[string]any{"users": count}}
}

func (h *HealthChecker) checkEvents() CheckResult {
	if h.events == nil {
		return CheckResult{Status: checkFail, Message: "event store not initialized"}
	}
	return CheckResult{Status: checkPass, Details: map[string]any{"events": h.events.Count()}}
}

func checkValue(status string) float64 {
	if status == checkPass {
		return 1
	}
	return 0
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": value})
}
