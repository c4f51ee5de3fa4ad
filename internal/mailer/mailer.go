package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ringside/internal/domain"
)

// ErrUnavailable wraps every failure reported by the mail function.
var ErrUnavailable = errors.New("mail endpoint unavailable")

// Client posts {email, name} to the hosted mail function.
type Client struct {
	endpoint string
	client   *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type sendRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Send asks the mail function to email name at email. There are no retries.
func (c *Client) Send(ctx context.Context, email, name string) error {
	if c.endpoint == "" {
		return fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}
	body, err := json.Marshal(sendRequest{Email: email, Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out sendResponse
	_ = json.Unmarshal(raw, &out)
	if out.Error != "" {
		return fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// Confirmations mails the buyer after every placed order. Sends run in the
// background and failures are only logged.
type Confirmations struct {
	client  *Client
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewConfirmations(client *Client, timeout time.Duration, log *zap.Logger) *Confirmations {
	return &Confirmations{client: client, timeout: timeout, log: log}
}

func (c *Confirmations) OrderPlaced(ctx context.Context, o domain.Order) {
	email := o.PersonalInfo.Email
	name := strings.TrimSpace(o.PersonalInfo.FirstName + " " + o.PersonalInfo.LastName)
	ctx = context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		sctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.client.Send(sctx, email, name); err != nil {
			c.log.Warn("order confirmation not sent", zap.String("order", o.ID), zap.Error(err))
			return
		}
		c.log.Info("order confirmation sent", zap.String("order", o.ID))
	}()
}

// Wait blocks until in-flight sends finish or ctx ends.
func (c *Confirmations) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
