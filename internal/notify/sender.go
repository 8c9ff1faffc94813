package notify

import (
	"context"
)

// Sender delivers an alert to one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}
