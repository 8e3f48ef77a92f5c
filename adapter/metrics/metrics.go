// Package metrics Prometheus counters of the raw link listener
package metrics

import (
	"errors"
	"net/http"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forest33/rawlink/business/entity"
)

const namespace = "rawlink"

const (
	directionReceive = "receive"
	directionSend    = "send"
)

type Metrics struct {
	registry  *prometheus.Registry
	frames    *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	errors    *prometheus.CounterVec
	truncated prometheus.Counter
}

type Config struct {
	Interface string
	EtherType string
}

func New(cfg *Config) *Metrics {
	labels := prometheus.Labels{
		"interface":  cfg.Interface,
		"ether_type": cfg.EtherType,
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frames_total",
			Help:        "Frames received or sent.",
			ConstLabels: labels,
		}, []string{"direction"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "bytes_total",
			Help:        "Bytes received or sent.",
			ConstLabels: labels,
		}, []string{"direction"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "errors_total",
			Help:        "Failed receive and send completions.",
			ConstLabels: labels,
		}, []string{"direction", "reason"}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "truncated_frames_total",
			Help:        "Received frames larger than the receive buffer.",
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(
		m.frames,
		m.bytes,
		m.errors,
		m.truncated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) FrameReceived(n int, truncated bool) {
	m.frames.WithLabelValues(directionReceive).Inc()
	m.bytes.WithLabelValues(directionReceive).Add(float64(n))
	if truncated {
		m.truncated.Inc()
	}
}

func (m *Metrics) FrameSent(n int) {
	m.frames.WithLabelValues(directionSend).Inc()
	m.bytes.WithLabelValues(directionSend).Add(float64(n))
}

func (m *Metrics) ReceiveError(err error) {
	m.errors.WithLabelValues(directionReceive, reason(err)).Inc()
}

func (m *Metrics) SendError(err error) {
	m.errors.WithLabelValues(directionSend, reason(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func reason(err error) string {
	var errno syscall.Errno
	switch {
	case errors.Is(err, entity.ErrOperationAborted):
		return "aborted"
	case errors.Is(err, entity.ErrFrameTooShort):
		return "frame_too_short"
	case errors.As(err, &errno):
		return errno.Error()
	default:
		return "other"
	}
}
