package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
)

func TestWorkflowMetrics_Counters(t *testing.T) {
	m := NewWorkflowMetrics()

	m.StepAdvanced("new_asset", "contribution")
	m.StepAdvanced("new_asset", "contribution")
	m.StepAdvanced("new_asset", "detail")
	m.ValidationFailed("new_asset", "detail", "physicalType")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.stepsAdvanced.WithLabelValues("new_asset", "contribution")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.stepsAdvanced.WithLabelValues("new_asset", "detail")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationFailed.WithLabelValues("new_asset", "detail", "physicalType")))
}

func TestWorkflowMetrics_ValidationFailed_FieldKey(t *testing.T) {
	m := NewWorkflowMetrics()

	m.ValidationFailed("new_asset", "contribution", "contributions.Ana")
	m.ValidationFailed("new_asset", "contribution", "contributions.Someone Else")
	m.ValidationFailed("new_asset", "identity", "acquiredAt")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.validationFailed.WithLabelValues("new_asset", "contribution", "contributions")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.validationFailed.WithLabelValues("new_asset", "identity", "acquiredAt")))

	count, err := testutil.GatherAndCount(m.Registry(), "uniao_workflow_validation_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWorkflowMetrics_Submitted(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
		failed  float64
	}{
		{name: "committed", err: nil, outcome: "committed"},
		{name: "field error", err: entities.NewFieldError("assignedMemberId", entities.ErrUnknownMember, "unknown member"), outcome: "invalid"},
		{name: "store error", err: errors.New("disk full"), outcome: "failed", failed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWorkflowMetrics()
			m.Submitted("new_transaction", tt.err)

			assert.Equal(t, float64(1), testutil.ToFloat64(m.submissions.WithLabelValues("new_transaction", tt.outcome)))
			assert.Equal(t, tt.failed, testutil.ToFloat64(m.persistenceErrors))
		})
	}
}

func TestWorkflowMetrics_WriteToTextfile(t *testing.T) {
	m := NewWorkflowMetrics()
	m.StepAdvanced("new_asset", "contribution")
	m.Submitted("new_asset", nil)

	path := filepath.Join(t.TempDir(), "uniao.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `uniao_workflow_steps_advanced_total{mode="new_asset",step="contribution"} 1`)
	assert.Contains(t, string(data), `uniao_workflow_submissions_total{mode="new_asset",outcome="committed"} 1`)

	err = m.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "uniao.prom"))
	assert.Error(t, err)
}

func TestWorkflowMetrics_Registry(t *testing.T) {
	m := NewWorkflowMetrics()
	m.StepAdvanced("new_asset", "detail")

	count, err := testutil.GatherAndCount(m.Registry(), "uniao_workflow_steps_advanced_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
