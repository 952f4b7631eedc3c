package contact

import (
	"context"
	"html"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/caligben/pantry/requestid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Submission is an accepted contact request. Fields are trimmed.
type Submission struct {
	ID         string
	Fields     Fields
	ReceivedAt time.Time
}

// Recorder takes note of an accepted submission. There is no delivery:
// implementations log or keep the submission in memory, nothing is sent
// over the network.
type Recorder interface {
	Record(ctx context.Context, sub Submission) error
}

// maxLoggedMessage bounds the message body written to logs.
const maxLoggedMessage = 500

var (
	logPolicyOnce sync.Once
	logPolicy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	logPolicyOnce.Do(func() {
		logPolicy = bluemonday.StrictPolicy()
	})
	return logPolicy
}

// sanitize strips markup. The policy escapes the text it keeps, which is
// undone so plain characters such as '&' are logged as submitted.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer().Sanitize(s)))
}

// LogRecorder writes each submission to a zap logger.
type LogRecorder struct {
	Logger *zap.Logger
}

// NewLogRecorder returns a LogRecorder; a nil logger discards records.
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRecorder{Logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, sub Submission) error {
	msg := sanitize(sub.Fields.Message)
	if utf8.RuneCountInString(msg) > maxLoggedMessage {
		msg = string([]rune(msg)[:maxLoggedMessage]) + "…"
	}
	r.Logger.Info("contact form submitted",
		zap.String("submission_id", sub.ID),
		zap.Time("received_at", sub.ReceivedAt),
		zap.String("name", sanitize(sub.Fields.Name)),
		zap.String("email", sanitize(sub.Fields.Email)),
		zap.String("phone", sanitize(sub.Fields.Phone)),
		zap.String("service", sanitize(sub.Fields.Service)),
		zap.String("message", msg),
		requestid.Field(ctx),
	)
	return nil
}
