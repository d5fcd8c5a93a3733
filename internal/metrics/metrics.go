package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all eventdesk metrics
const namespace = "eventdesk"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HealthCheckStatus tracks individual health check results
// Values: 0 = fail, 1 = pass
var HealthCheckStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_status",
		Help:      "Individual health check status (0=fail, 1=pass)",
	},
	[]string{"check"},
)

// Auth metrics

// LoginAttempts counts login attempts by result: success|unknown_user|bad_password|error
var LoginAttempts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by result",
	},
	[]string{"result"},
)

// SessionRejections counts requests to guarded routes without a usable session.
var SessionRejections = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Guarded requests rejected for missing, invalid or unresolvable sessions",
	},
	[]string{"reason"}, // reason: missing|invalid|unknown_user
)

// Event store metrics

// EventMutations counts successful event store mutations by operation.
var EventMutations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_mutations_total",
		Help:      "Total number of event mutations",
	},
	[]string{"op"}, // op: create|update|delete|favorite
)

// EventsStored is the number of events currently held in memory.
var EventsStored = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_stored",
		Help:      "Current number of events in the store",
	},
)

// Init registers runtime collectors and sets version information
func Init(version, commit, buildDate string) {
	registerRuntime.Do(func() {
		// Go runtime and process metrics (memory, goroutines, GC, file descriptors)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

var registerRuntime sync.Once

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
