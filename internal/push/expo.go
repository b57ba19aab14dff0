// Package push delivers device notifications through the Expo push API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/metrics"
	"github.com/iliyamo/gym-management/internal/queue"
)

// ErrDeviceNotRegistered means the token is stale and should be cleared.
var ErrDeviceNotRegistered = errors.New("device not registered")

// Client posts messages to an Expo compatible endpoint.
type Client struct {
	Endpoint    string
	AccessToken string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

func NewClient(endpoint, accessToken string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Endpoint:    endpoint,
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: timeout},
		Logger:      logger,
	}
}

type message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type ticket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type response struct {
	Data   []ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Send delivers one job and records the outcome.
func (c *Client) Send(ctx context.Context, job queue.PushJob) error {
	err := c.send(ctx, job)
	switch {
	case err == nil:
		metrics.PushDeliveriesTotal.WithLabelValues("sent").Inc()
	case errors.Is(err, ErrDeviceNotRegistered):
		metrics.PushDeliveriesTotal.WithLabelValues("unregistered").Inc()
	default:
		metrics.PushDeliveriesTotal.WithLabelValues("failed").Inc()
	}
	return err
}

func (c *Client) send(ctx context.Context, job queue.PushJob) error {
	data := map[string]string{"type": job.Type}
	if job.NotificationID != "" {
		data["notification_id"] = job.NotificationID
	}
	for k, v := range job.Data {
		data[k] = v
	}
	payload, err := json.Marshal([]message{{To: job.PushToken, Title: job.Title, Body: job.Body, Data: data, Sound: "default"}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Warn("push request failed", zap.String("user_id", job.UserID), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push provider returned %d: %s", resp.StatusCode, string(body))
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("push provider error %s: %s", out.Errors[0].Code, out.Errors[0].Message)
	}
	if len(out.Data) == 0 {
		return errors.New("push provider returned no ticket")
	}
	t := out.Data[0]
	if t.Status == "ok" {
		return nil
	}
	if t.Details.Error == "DeviceNotRegistered" {
		return ErrDeviceNotRegistered
	}
	return fmt.Errorf("push rejected: %s", t.Message)
}
