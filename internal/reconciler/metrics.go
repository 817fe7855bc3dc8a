package reconciler

import (
	"sync"
	"time"

	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// Metrics tracks deployment outcomes across passes.
//
// A single instance may be shared by concurrent invocations when the
// deployer runs as a long-lived server.
type Metrics struct {
	mu sync.RWMutex

	passesStarted   int64
	passesSucceeded int64
	passesFailed    int64

	workflowsCreated   int64
	versionsRegistered int64
	promotions         int64
	promotionsSkipped  int64

	failuresByStep map[Step]int64

	lastPassAt    time.Time
	lastSuccessAt time.Time
	lastFailureAt time.Time
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{failuresByStep: make(map[Step]int64)}
}

func (m *Metrics) recordPassStart(keys int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passesStarted++
	m.lastPassAt = time.Now()
	logging.Debug("ReconcilerMetrics", "Pass started with %d definition(s)", keys)
}

func (m *Metrics) recordPassSuccess() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passesSucceeded++
	m.lastSuccessAt = time.Now()
}

func (m *Metrics) recordPassFailure(step Step) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passesFailed++
	m.failuresByStep[step]++
	m.lastFailureAt = time.Now()
	logging.Warn("ReconcilerMetrics", "Pass failed at step %s (failures at this step: %d)", step, m.failuresByStep[step])
}

func (m *Metrics) recordKey(result KeyResult) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if result.Created {
		m.workflowsCreated++
	}
	m.versionsRegistered++
	if result.Promoted {
		m.promotions++
	} else {
		m.promotionsSkipped++
	}
}

// MetricsSummary is a point-in-time copy of Metrics.
type MetricsSummary struct {
	PassesStarted      int64          `json:"passes_started" yaml:"passesStarted"`
	PassesSucceeded    int64          `json:"passes_succeeded" yaml:"passesSucceeded"`
	PassesFailed       int64          `json:"passes_failed" yaml:"passesFailed"`
	WorkflowsCreated   int64          `json:"workflows_created" yaml:"workflowsCreated"`
	VersionsRegistered int64          `json:"versions_registered" yaml:"versionsRegistered"`
	Promotions         int64          `json:"promotions" yaml:"promotions"`
	PromotionsSkipped  int64          `json:"promotions_skipped" yaml:"promotionsSkipped"`
	FailuresByStep     map[Step]int64 `json:"failures_by_step" yaml:"failuresByStep"`
	LastPassAt         time.Time      `json:"last_pass_at,omitempty" yaml:"lastPassAt,omitempty"`
	LastSuccessAt      time.Time      `json:"last_success_at,omitempty" yaml:"lastSuccessAt,omitempty"`
	LastFailureAt      time.Time      `json:"last_failure_at,omitempty" yaml:"lastFailureAt,omitempty"`
}

// Summary returns a snapshot of the counters.
func (m *Metrics) Summary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	failures := make(map[Step]int64, len(m.failuresByStep))
	for step, n := range m.failuresByStep {
		failures[step] = n
	}
	return MetricsSummary{
		PassesStarted:      m.passesStarted,
		PassesSucceeded:    m.passesSucceeded,
		PassesFailed:       m.passesFailed,
		WorkflowsCreated:   m.workflowsCreated,
		VersionsRegistered: m.versionsRegistered,
		Promotions:         m.promotions,
		PromotionsSkipped:  m.promotionsSkipped,
		FailuresByStep:     failures,
		LastPassAt:         m.lastPassAt,
		LastSuccessAt:      m.lastSuccessAt,
		LastFailureAt:      m.lastFailureAt,
	}
}
