package ports

// WorkflowObserver is notified of acquisition workflow progress.
// Implementations must be safe for concurrent use.
type WorkflowObserver interface {
	StepAdvanced(mode, step string)
	ValidationFailed(mode, step, field string)
	Submitted(mode string, err error)
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) StepAdvanced(string, string)             {}
func (NopObserver) ValidationFailed(string, string, string) {}
func (NopObserver) Submitted(string, error)                 {}
