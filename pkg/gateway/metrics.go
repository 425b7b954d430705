package gateway

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts gateway requests per operation. Each client owns its own
// registry so several clients can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the request counters on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ged_client_requests_total",
				Help: "Requests issued to the document service, by operation and status code",
			},
			[]string{"op", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ged_client_request_duration_seconds",
				Help:    "Duration of requests to the document service",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

// observe records one request. code 0 means the transport failed.
func (m *Metrics) observe(op string, code int, elapsed time.Duration) {
	label := strconv.Itoa(code)
	if code == 0 {
		label = "error"
	}
	m.requests.WithLabelValues(op, label).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// OpSummary is the aggregated view of one operation.
type OpSummary struct {
	Op       string         `json:"op" yaml:"op"`
	Codes    map[string]int `json:"codes" yaml:"codes"`
	Requests int            `json:"requests" yaml:"requests"`
	Seconds  float64        `json:"seconds" yaml:"seconds"`
}

// Summary gathers the registry into per-operation totals.
func (m *Metrics) Summary() ([]OpSummary, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}

	byOp := make(map[string]*OpSummary)
	var order []string
	get := func(op string) *OpSummary {
		s, ok := byOp[op]
		if !ok {
			s = &OpSummary{Op: op, Codes: make(map[string]int)}
			byOp[op] = s
			order = append(order, op)
		}
		return s
	}

	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			s := get(labels["op"])
			switch fam.GetName() {
			case "ged_client_requests_total":
				n := int(metric.GetCounter().GetValue())
				s.Codes[labels["code"]] += n
				s.Requests += n
			case "ged_client_request_duration_seconds":
				s.Seconds += metric.GetHistogram().GetSampleSum()
			}
		}
	}

	out := make([]OpSummary, 0, len(order))
	for _, op := range order {
		out = append(out, *byOp[op])
	}
	return out, nil
}
