package jofotara

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Result is what a successful authority call yields. Raw keeps the
// untouched response body for the forensic record.
type Result struct {
	UUID   string
	QRCode string
	Raw    []byte
}

// Client is the transport boundary to the tax authority. Implementations
// return either a Result or an error; any other shape counts as failure.
type Client interface {
	Submit(ctx context.Context, payload []byte) (*Result, error)
}

// HTTPClient talks to the JoFotara reporting endpoint. No retry policy
// lives here: a failed call surfaces as an error and the submission record
// ends up "failed", retryable by a fresh submit.
type HTTPClient struct {
	BaseURL   string
	ClientID  string
	SecretKey string
	Timeout   time.Duration
}

// NewHTTPClientFromEnv builds the client from JOFOTARA_* env vars.
func NewHTTPClientFromEnv() *HTTPClient {
	return &HTTPClient{
		BaseURL:   os.Getenv("JOFOTARA_BASE_URL"),
		ClientID:  os.Getenv("JOFOTARA_CLIENT_ID"),
		SecretKey: os.Getenv("JOFOTARA_SECRET_KEY"),
		Timeout:   30 * time.Second,
	}
}

type authorityResponse struct {
	UUID   string `json:"EINV_INV_UUID"`
	QRCode string `json:"EINV_QR"`
	Status string `json:"EINV_STATUS"`
}

// Submit posts the base64-wrapped payload. The document travels inside a
// JSON envelope per the authority's API contract.
func (c *HTTPClient) Submit(ctx context.Context, payload []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.BaseURL == "" {
		return nil, errors.New("jofotara client not configured (JOFOTARA_BASE_URL)")
	}

	envelope, err := json.Marshal(fiber.Map{
		"invoice": base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("build submit envelope: %w", err)
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.Header.SetContentType(fiber.MIMEApplicationJSON)
	req.Header.Set("Client-Id", c.ClientID)
	req.Header.Set("Secret-Key", c.SecretKey)
	req.SetRequestURI(c.BaseURL + "/core/invoices/")

	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("prepare authority request: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	code, body, errs := agent.Timeout(timeout).Body(envelope).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("authority call failed: %w", errs[0])
	}
	if code < 200 || code > 299 {
		return nil, fmt.Errorf("authority rejected the document (HTTP %d): %s", code, string(body))
	}

	var parsed authorityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unreadable authority response: %w", err)
	}
	if parsed.UUID == "" && parsed.QRCode == "" {
		return nil, fmt.Errorf("authority response missing document reference: %s", string(body))
	}

	raw := make([]byte, len(body))
	copy(raw, body)
	return &Result{UUID: parsed.UUID, QRCode: parsed.QRCode, Raw: raw}, nil
}
