package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookNotifier posts reconciliation summaries to a webhook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends a reconciliation summary to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, msg ReconcileMessage) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier: empty url")
	}
	payload := webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: formatReconcileMessage(msg)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook notifier: non-2xx")
	}
	return nil
}

func formatReconcileMessage(msg ReconcileMessage) string {
	var b strings.Builder
	b.WriteString("[Dues Reconciliation]\n")
	if msg.Period != "" {
		fmt.Fprintf(&b, "Period: %s\n", msg.Period)
	} else {
		b.WriteString("Period: all\n")
	}
	if msg.DryRun {
		b.WriteString("Mode: dry run\n")
	}
	fmt.Fprintf(&b, "Checked: %d\n", msg.Checked)
	fmt.Fprintf(&b, "Updated: %d\n", msg.Updated)
	fmt.Fprintf(&b, "Errored: %d\n", msg.Errored)
	if msg.PeriodsSkipped > 0 {
		fmt.Fprintf(&b, "Periods skipped: %d\n", msg.PeriodsSkipped)
	}
	if len(msg.PeriodErrors) > 0 {
		if raw, err := json.Marshal(msg.PeriodErrors); err == nil {
			fmt.Fprintf(&b, "Errors: %s\n", string(raw))
		}
	}
	return strings.TrimSpace(b.String())
}
