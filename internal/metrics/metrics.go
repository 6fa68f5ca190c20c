package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Labels attach dimensions to a sample.
type Labels map[string]string

type kind int

const (
	kindCounter kind = iota
	kindGauge
)

type series struct {
	name   string
	labels Labels
	kind   kind
	value  float64
}

// Registry collects counters and gauges and renders them in the Prometheus
// text exposition format. The zero value is not usable; construct with
// NewRegistry. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	series map[string]*series
	help   map[string]string
}

// NewRegistry constructs an empty metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		series: make(map[string]*series),
		help:   make(map[string]string),
	}
}

// Describe registers help text rendered above a metric family.
func (r *Registry) Describe(name, help string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.help[name] = help
}

// Inc increments a counter by one.
func (r *Registry) Inc(name string, labels Labels) {
	r.Add(name, labels, 1)
}

// Add increments a counter by delta.
func (r *Registry) Add(name string, labels Labels, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsert(name, labels, kindCounter).value += delta
}

// Set records the current value of a gauge.
func (r *Registry) Set(name string, labels Labels, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsert(name, labels, kindGauge).value = value
}

// Value returns the current value of a series, zero when absent.
func (r *Registry) Value(name string, labels Labels) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.series[seriesKey(name, labels)]; ok {
		return s.value
	}
	return 0
}

func (r *Registry) upsert(name string, labels Labels, k kind) *series {
	key := seriesKey(name, labels)
	s, ok := r.series[key]
	if !ok {
		copied := make(Labels, len(labels))
		for lk, lv := range labels {
			copied[lk] = lv
		}
		s = &series{name: name, labels: copied, kind: k}
		r.series[key] = s
	}
	return s
}

// WriteText renders all series in Prometheus text format, families and
// labels in stable sorted order.
func (r *Registry) WriteText(w io.Writer) error {
	r.mu.Lock()
	snapshot := make([]*series, 0, len(r.series))
	for _, s := range r.series {
		snapshot = append(snapshot, s)
	}
	help := make(map[string]string, len(r.help))
	for name, text := range r.help {
		help[name] = text
	}
	r.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].name != snapshot[j].name {
			return snapshot[i].name < snapshot[j].name
		}
		return formatLabels(snapshot[i].labels) < formatLabels(snapshot[j].labels)
	})

	var lastFamily string
	for _, s := range snapshot {
		if s.name != lastFamily {
			if text, ok := help[s.name]; ok {
				if _, err := fmt.Fprintf(w, "# HELP %s %s\n", s.name, text); err != nil {
					return err
				}
			}
			typeName := "counter"
			if s.kind == kindGauge {
				typeName = "gauge"
			}
			if _, err := fmt.Fprintf(w, "# TYPE %s %s\n", s.name, typeName); err != nil {
				return err
			}
			lastFamily = s.name
		}
		if _, err := fmt.Fprintf(w, "%s%s %g\n", s.name, formatLabels(s.labels), s.value); err != nil {
			return err
		}
	}
	return nil
}

func seriesKey(name string, labels Labels) string {
	return name + formatLabels(labels)
}

func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

// RecordCall implements the REST client's usage hook, counting outbound
// collaborator calls and accumulating their latency.
func (r *Registry) RecordCall(service, operation string, status int, elapsed time.Duration) {
	labels := Labels{
		"service":   service,
		"operation": operation,
		"code":      fmt.Sprintf("%d", status),
	}
	r.Inc("newsforge_external_calls_total", labels)
	r.Add("newsforge_external_call_seconds_total", Labels{"service": service}, elapsed.Seconds())
}
