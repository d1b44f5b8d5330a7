// Package notify delivers risk events to external channels.
// fire-and-forget: 전송 실패는 로그로만 남기고 사이클에 영향 없음.
package notify

import (
	"context"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/pkg/httputil"
	"github.com/wonny/kairos/pkg/logger"
)

// LogNotifier writes events to the structured log
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify logs the event at a level matching its severity
func (n *LogNotifier) Notify(ctx context.Context, event contracts.RiskEvent) {
	entry := n.logger.WithFields(map[string]interface{}{
		"type":   string(event.Type),
		"symbol": event.Symbol,
		"value":  event.Value,
	})

	switch event.Severity {
	case contracts.SeverityCritical:
		entry.Error(event.Message)
	case contracts.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}
}

// WebhookNotifier posts events as JSON to a webhook URL
// (Slack/Discord incoming webhook 호환)
type WebhookNotifier struct {
	client *httputil.Client
	url    string
	logger *logger.Logger
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(client *httputil.Client, url string, log *logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url, logger: log}
}

// Notify posts the event; failures are logged and dropped
func (n *WebhookNotifier) Notify(ctx context.Context, event contracts.RiskEvent) {
	resp, err := n.client.PostJSON(ctx, n.url, event)
	if err != nil {
		n.logger.WithError(err).WithField("type", string(event.Type)).Warn("Webhook delivery failed")
		return
	}
	resp.Body.Close()
}

// Fanout delivers each event to every child notifier
type Fanout []interface {
	Notify(ctx context.Context, event contracts.RiskEvent)
}

// Notify forwards to all children
func (f Fanout) Notify(ctx context.Context, event contracts.RiskEvent) {
	for _, n := range f {
		n.Notify(ctx, event)
	}
}
