package publish

import (
	"context"
	"errors"
)

// ErrPublish is returned when the sink rejects or cannot be reached.
var ErrPublish = errors.New("publish failed")

// Publisher delivers recap text and artifacts to the configured sink. Text
// longer than the sink's display limit is delivered as ordered parts.
type Publisher interface {
	Publish(ctx context.Context, text string) error
	PublishFile(ctx context.Context, path, filename string) error
}
