package notifications

import "context"

type AcknowledgmentInput struct {
	Email     string
	Name      string
	Plan      string
	Total     float64
	Message   string
	RequestID string
}

type Notifier interface {
	SendAcknowledgment(ctx context.Context, input AcknowledgmentInput) error
}
