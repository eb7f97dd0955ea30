// Package metrics decouples pipeline instrumentation from any vendor
// client. Pipeline code calls the package-level helpers; a concrete
// backend is installed once at startup. Without one, every call is a
// no-op.
package metrics

import "sync"

// Labels are free-form metric dimensions (e.g. {"file": "invoices"}).
type Labels map[string]string

// Backend receives metric updates. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Nop discards everything. It is the default backend.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = Nop{}
)

// SetBackend installs the process-wide backend. Call once at startup,
// before any pipeline work begins.
func SetBackend(b Backend) {
	if b == nil {
		b = Nop{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a counter on the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample on the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush forces buffered metrics out through the installed backend.
func Flush() error {
	return current().Flush()
}
