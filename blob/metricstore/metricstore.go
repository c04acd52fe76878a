// Package metricstore wraps a blob.Store with Prometheus instrumentation.
//
// Per operation it records a counter by outcome, a duration histogram, and
// byte counters for content moved in and out of the store.
package metricstore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shelfdb/shelf/blob"
)

// Store decorates another blob.Store with metrics.
type Store struct {
	next blob.Store

	ops          *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	bytesRead    prometheus.Counter
	bytesWritten prometheus.Counter
}

// New wraps next and registers the store's collectors on reg.
func New(next blob.Store, reg prometheus.Registerer) *Store {
	s := &Store{
		next: next,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "blobstore",
			Name:      "ops_total",
			Help:      "Blob store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shelf",
			Subsystem: "blobstore",
			Name:      "op_duration_seconds",
			Help:      "Blob store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "blobstore",
			Name:      "read_bytes_total",
			Help:      "Bytes returned by Read.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelf",
			Subsystem: "blobstore",
			Name:      "written_bytes_total",
			Help:      "Bytes passed to Create, Update and Append.",
		}),
	}
	reg.MustRegister(s.ops, s.duration, s.bytesRead, s.bytesWritten)
	return s
}

func (s *Store) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.ops.WithLabelValues(op, outcome).Inc()
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Create implements blob.Store.
func (s *Store) Create(ctx context.Context, name string, content []byte) error {
	start := time.Now()
	err := s.next.Create(ctx, name, content)
	s.observe("create", start, err)
	if err == nil {
		s.bytesWritten.Add(float64(len(content)))
	}
	return err
}

// Read implements blob.Store.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	content, err := s.next.Read(ctx, name)
	s.observe("read", start, err)
	if err == nil {
		s.bytesRead.Add(float64(len(content)))
	}
	return content, err
}

// Update implements blob.Store.
func (s *Store) Update(ctx context.Context, name string, content []byte) error {
	start := time.Now()
	err := s.next.Update(ctx, name, content)
	s.observe("update", start, err)
	if err == nil {
		s.bytesWritten.Add(float64(len(content)))
	}
	return err
}

// Delete implements blob.Store.
func (s *Store) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := s.next.Delete(ctx, name)
	s.observe("delete", start, err)
	return err
}

// Append implements blob.Store.
func (s *Store) Append(ctx context.Context, name string, content []byte) error {
	start := time.Now()
	err := s.next.Append(ctx, name, content)
	s.observe("append", start, err)
	if err == nil {
		s.bytesWritten.Add(float64(len(content)))
	}
	return err
}

var _ blob.Store = (*Store)(nil)
