// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// GraphSink is a mock implementation of ports.GraphSink.
type GraphSink struct {
	Published []entities.Graph
	Err       error
}

// Publish records the graph or returns the configured error.
func (m *GraphSink) Publish(_ context.Context, graph *entities.Graph) error {
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, *graph)
	return nil
}

// Observer records workflow notifications.
type Observer struct {
	mu          sync.Mutex
	Advanced    []string
	Failed      []string
	Submissions []error
}

// StepAdvanced records "mode/step".
func (o *Observer) StepAdvanced(mode, step string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Advanced = append(o.Advanced, mode+"/"+step)
}

// ValidationFailed records "mode/step/field".
func (o *Observer) ValidationFailed(mode, step, field string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Failed = append(o.Failed, mode+"/"+step+"/"+field)
}

// Submitted records the submit outcome.
func (o *Observer) Submitted(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Submissions = append(o.Submissions, err)
}
