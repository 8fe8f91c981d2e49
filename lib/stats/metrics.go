package stats

import (
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

// ServeMetrics exposes all process metrics in Prometheus text format on
// addr under /metrics. It blocks like http.ListenAndServe; callers run it
// in a goroutine next to the measurement role.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	return http.ListenAndServe(addr, mux)
}
