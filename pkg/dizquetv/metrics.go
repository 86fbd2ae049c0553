package dizquetv

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for client requests.
type Metrics struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dizquetv_client_requests_total",
				Help: "Total number of requests sent to the dizqueTV API.",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dizquetv_client_request_duration_seconds",
				Help:    "Latency of requests sent to the dizqueTV API.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
	if err := reg.Register(m.requestCount); err != nil {
		return nil, err
	}
	if err := reg.Register(m.requestDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	endpoint := endpointLabel(path)
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestCount.WithLabelValues(method, endpoint, code).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// endpointLabel keeps only the resource segment of a path so channel numbers
// and filler ids do not explode label cardinality.
func endpointLabel(path string) string {
	if idx := strings.Index(path, apiPrefix+"/"); idx >= 0 {
		path = path[idx+len(apiPrefix):]
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "/"
	}
	segment, _, _ := strings.Cut(path, "/")
	return "/" + segment
}
