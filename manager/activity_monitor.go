package manager

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"falproxy/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// ModelMetrics holds the request counters for a specific model.
type ModelMetrics struct {
	Model     string
	InFlight  int
	Completed int
	Failed    int
	changed   bool
}

// ActivityMonitor counts requests per model and periodically logs the models
// whose counters moved. It only observes; it never blocks or rejects a request.
type ActivityMonitor struct {
	mu       sync.Mutex
	metrics  map[string]*ModelMetrics
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewActivityMonitor returns a monitor that logs every interval. A zero
// interval disables the background logger; counters are still kept.
func NewActivityMonitor(interval time.Duration) *ActivityMonitor {
	m := &ActivityMonitor{
		metrics:  make(map[string]*ModelMetrics),
		interval: interval,
		stop:     make(chan struct{}),
	}
	if interval > 0 {
		go m.monitor()
	}
	return m
}

// Begin records a request for model and returns the func that records its
// completion. status is the HTTP status sent to the client.
func (m *ActivityMonitor) Begin(model string) func(status int) {
	m.mu.Lock()
	metrics, ok := m.metrics[model]
	if !ok {
		metrics = &ModelMetrics{Model: model}
		m.metrics[model] = metrics
	}
	metrics.InFlight++
	metrics.changed = true
	m.mu.Unlock()

	var once sync.Once
	return func(status int) {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if metrics.InFlight > 0 {
				metrics.InFlight--
			}
			if status >= 400 {
				metrics.Failed++
			} else {
				metrics.Completed++
			}
			metrics.changed = true
		})
	}
}

// Snapshot returns a copy of the counters for model.
func (m *ActivityMonitor) Snapshot(model string) ModelMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	if metrics, ok := m.metrics[model]; ok {
		return *metrics
	}
	return ModelMetrics{Model: model}
}

func (m *ActivityMonitor) monitor() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.logChanged()
		}
	}
}

func (m *ActivityMonitor) logChanged() {
	m.mu.Lock()
	defer m.mu.Unlock()

	models := make([]string, 0, len(m.metrics))
	for model, metrics := range m.metrics {
		if metrics.changed {
			models = append(models, model)
		}
	}
	sort.Strings(models)

	for _, model := range models {
		metrics := m.metrics[model]
		log.Infof("Model: %s | In flight: %d | Completed: %d | Failed: %d",
			metrics.Model, metrics.InFlight, metrics.Completed, metrics.Failed)
		metrics.changed = false
	}
}

// Shutdown stops the background logger.
func (m *ActivityMonitor) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}
