// Package metrics is a thin statsd wrapper. A Recorder is always safe to use;
// when no agent address is configured it degrades to a no-op.
package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Recorder emits counters and timings to a statsd agent.
type Recorder struct {
	client statsd.ClientInterface
}

// New connects to the statsd agent at addr. An empty addr yields a no-op
// recorder.
func New(addr, namespace string) (*Recorder, error) {
	if addr == "" {
		return Noop(), nil
	}
	client, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("metrics: connect statsd: %w", err)
	}
	return &Recorder{client: client}, nil
}

// Noop returns a recorder that discards everything.
func Noop() *Recorder {
	return &Recorder{client: &statsd.NoOpClient{}}
}

// Count increments a counter by one.
func (r *Recorder) Count(name string, tags ...string) {
	_ = r.client.Incr(name, tags, 1)
}

// Timing reports a duration.
func (r *Recorder) Timing(name string, d time.Duration, tags ...string) {
	_ = r.client.Timing(name, d, tags, 1)
}

// Close flushes and shuts down the underlying client.
func (r *Recorder) Close() {
	_ = r.client.Close()
}
