package intake

import (
	"context"

	"github.com/lychee-technology/inquiry"
	"go.uber.org/zap"
)

// Notifier is told about every accepted inquiry.
type Notifier interface {
	Notify(ctx context.Context, form *inquiry.Form, q *inquiry.Inquiry) error
}

// LogNotifier writes one log line per inquiry in place of mail delivery.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier logging through logger, or the global
// logger when nil.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.L()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, form *inquiry.Form, q *inquiry.Inquiry) error {
	n.logger.Info("inquiry received",
		zap.String("inquiryId", q.ID.String()),
		zap.String("formId", q.FormID),
		zap.String("formName", form.Name),
		zap.Strings("recipients", q.Recipients),
		zap.Bool("autoReply", q.AutoReply),
		zap.String("senderEmail", q.Sender.Email),
	)
	return nil
}
