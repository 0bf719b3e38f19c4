// Package metrics exposes optional prometheus collectors for transfers.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "transfer"

// Direction labels
const (
	Download = "download"
	Upload   = "upload"
)

// Metrics holds the transfer collectors.
type Metrics struct {
	parts            *prometheus.CounterVec
	bytes            *prometheus.CounterVec
	checksumFailures prometheus.Counter
	resumedParts     prometheus.Counter
}

// New creates the collectors and registers them with reg.
// Collectors already registered by another client are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		parts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parts_total",
			Help:      "Parts transferred, by direction.",
		}, []string{"direction"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Bytes transferred, by direction.",
		}, []string{"direction"}),
		checksumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_failures_total",
			Help:      "Fetched parts rejected for a size or digest mismatch.",
		}),
		resumedParts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumed_parts_total",
			Help:      "Parts verified in an existing local file and not fetched.",
		}),
	}

	var err error
	if m.parts, err = register(reg, m.parts); err != nil {
		return nil, err
	}
	if m.bytes, err = register(reg, m.bytes); err != nil {
		return nil, err
	}
	if m.checksumFailures, err = register(reg, m.checksumFailures); err != nil {
		return nil, err
	}
	if m.resumedParts, err = register(reg, m.resumedParts); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// PartTransferred records one part of n bytes moving in direction.
func (m *Metrics) PartTransferred(direction string, n int64) {
	if m == nil {
		return
	}
	m.parts.WithLabelValues(direction).Inc()
	m.bytes.WithLabelValues(direction).Add(float64(n))
}

// ChecksumFailure records a rejected part.
func (m *Metrics) ChecksumFailure() {
	if m == nil {
		return
	}
	m.checksumFailures.Inc()
}

// PartsResumed records n parts skipped by the resume scan.
func (m *Metrics) PartsResumed(n int) {
	if m == nil || n == 0 {
		return
	}
	m.resumedParts.Add(float64(n))
}
