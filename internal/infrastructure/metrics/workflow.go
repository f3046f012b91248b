// Package metrics exports acquisition workflow counters with Prometheus.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

var _ ports.WorkflowObserver = (*WorkflowMetrics)(nil)

// WorkflowMetrics implements ports.WorkflowObserver with Prometheus counters.
type WorkflowMetrics struct {
	registry *prometheus.Registry

	stepsAdvanced     *prometheus.CounterVec
	validationFailed  *prometheus.CounterVec
	submissions       *prometheus.CounterVec
	persistenceErrors prometheus.Counter
}

// NewWorkflowMetrics registers the workflow counters on a fresh registry.
func NewWorkflowMetrics() *WorkflowMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &WorkflowMetrics{
		registry: registry,
		stepsAdvanced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uniao_workflow_steps_advanced_total",
			Help: "Total number of acquisition workflow steps advanced",
		}, []string{"mode", "step"}),
		validationFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uniao_workflow_validation_failures_total",
			Help: "Total number of acquisition workflow validation failures by field",
		}, []string{"mode", "step", "field"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "uniao_workflow_submissions_total",
			Help: "Total number of acquisition workflow submissions by outcome",
		}, []string{"mode", "outcome"}),
		persistenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "uniao_workflow_persistence_failures_total",
			Help: "Total number of submissions that failed to commit",
		}),
	}
}

// Registry returns the registry holding the workflow counters.
func (m *WorkflowMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// StepAdvanced counts a successful Next.
func (m *WorkflowMetrics) StepAdvanced(mode, step string) {
	m.stepsAdvanced.WithLabelValues(mode, step).Inc()
}

// ValidationFailed counts a rejected Next or Submit. Only the field key
// before the first "." becomes a label; the rest can be user input such as a
// partner name.
func (m *WorkflowMetrics) ValidationFailed(mode, step, field string) {
	key, _, _ := strings.Cut(field, ".")
	m.validationFailed.WithLabelValues(mode, step, key).Inc()
}

// Submitted counts a submit outcome: committed, invalid or failed.
func (m *WorkflowMetrics) Submitted(mode string, err error) {
	outcome := "committed"
	if err != nil {
		if _, ok := entities.AsFieldError(err); ok {
			outcome = "invalid"
		} else {
			outcome = "failed"
			m.persistenceErrors.Inc()
		}
	}
	m.submissions.WithLabelValues(mode, outcome).Inc()
}

// WriteToTextfile writes the counters in the node_exporter textfile format.
func (m *WorkflowMetrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
