// Package workflow integrates the external automation engine. Triggering is
// best effort: ticket creation never fails or rolls back because the engine
// is down, and the engine reports completion later through the webhook
// callback path.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Client triggers workflow executions over HTTP.
type Client struct {
	baseURL     string
	secret      string
	callbackURL string
	httpClient  *http.Client
}

// NewClient creates a workflow engine client. The shared secret is forwarded
// on trigger requests so the engine can present it back on callbacks.
func NewClient(baseURL, secret, callbackURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		secret:      secret,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// triggerPayload is the body posted to the engine's intake webhook.
type triggerPayload struct {
	TicketID    string    `json:"ticket_id"`
	TenantID    string    `json:"tenant_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	CallbackURL string    `json:"callback_url"`
}

type triggerResponse struct {
	ExecutionID string `json:"execution_id"`
}

// Trigger starts a ticket-processing execution and returns its id. A missing
// execution id in the response is tolerated; a synthetic one is generated so
// the ticket still tracks a run.
func (c *Client) Trigger(ctx context.Context, t *domain.Ticket) (string, error) {
	payload := triggerPayload{
		TicketID:    t.ID.String(),
		TenantID:    t.TenantID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		UserID:      t.UserID.String(),
		CreatedAt:   t.CreatedAt,
		CallbackURL: c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("workflow.Trigger: marshal: %w", err)
	}

	url := c.baseURL + "/webhook/ticket-processing"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("workflow.Trigger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("workflow.Trigger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("workflow.Trigger: engine returned status %d", resp.StatusCode)
	}

	var tr triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil || tr.ExecutionID == "" {
		return fmt.Sprintf("exec_%d", time.Now().UnixMilli()), nil
	}

	return tr.ExecutionID, nil
}
