package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sales-dialer/internal/config"

	"golang.org/x/time/rate"
)

// ProviderError is a non-2xx response from the provider API.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return e.Message
}

// VapiClient talks to the Vapi REST API.
type VapiClient struct {
	baseURL       string
	apiKey        string
	phoneNumberID string
	assistantID   string
	timeout       time.Duration

	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewVapiClient builds a client. httpClient may be nil.
func NewVapiClient(cfg config.VapiConfig, httpClient *http.Client, log *slog.Logger) *VapiClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &VapiClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		assistantID:   cfg.AssistantID,
		timeout:       timeout,
		http:          httpClient,
		limiter:       rate.NewLimiter(rate.Limit(rps), burst),
		log:           log,
	}
}

func (c *VapiClient) Name() string { return "vapi" }

type vapiCustomer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type vapiAssistantOverrides struct {
	FirstMessage string `json:"firstMessage"`
}

type vapiCreateCall struct {
	PhoneNumberID      string                  `json:"phoneNumberId"`
	AssistantID        string                  `json:"assistantId"`
	Customer           vapiCustomer            `json:"customer"`
	AssistantOverrides *vapiAssistantOverrides `json:"assistantOverrides,omitempty"`
}

func (c *VapiClient) InitiateCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error) {
	if req.PhoneNumber == "" {
		return OutboundCallResult{}, errors.New("vapi: customer phone number is required")
	}
	body := vapiCreateCall{
		PhoneNumberID: c.phoneNumberID,
		AssistantID:   c.assistantID,
		Customer: vapiCustomer{
			Number: req.PhoneNumber,
			Name:   req.Name,
			Email:  req.Email,
		},
	}
	if req.FirstMessage != "" {
		body.AssistantOverrides = &vapiAssistantOverrides{FirstMessage: req.FirstMessage}
	}

	var out OutboundCallResult
	if err := c.do(ctx, http.MethodPost, "/call/phone", body, &out); err != nil {
		c.log.Warn("vapi call initiation failed", "err", err)
		return OutboundCallResult{}, err
	}
	if out.ProviderCallID == "" {
		return OutboundCallResult{}, errors.New("vapi: response missing call id")
	}
	c.log.Info("vapi call initiated", "provider_call_id", out.ProviderCallID)
	return out, nil
}

func (c *VapiClient) GetCall(ctx context.Context, providerCallID string) (ProviderCall, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/call/"+url.PathEscape(providerCallID), nil, &raw); err != nil {
		return ProviderCall{}, err
	}
	var pc ProviderCall
	if err := json.Unmarshal(raw, &pc); err != nil {
		return ProviderCall{}, fmt.Errorf("vapi: decode call: %w", err)
	}
	pc.Raw = raw
	return pc, nil
}

func (c *VapiClient) GetRecording(ctx context.Context, providerCallID string) (Recording, error) {
	var body struct {
		URL          string `json:"url"`
		RecordingURL string `json:"recordingUrl"`
	}
	if err := c.do(ctx, http.MethodGet, "/call/"+url.PathEscape(providerCallID)+"/recording", nil, &body); err != nil {
		return Recording{}, err
	}
	if body.URL == "" {
		body.URL = body.RecordingURL
	}
	return Recording{URL: body.URL}, nil
}

func (c *VapiClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("vapi: rate limit wait: %w", err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("vapi: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("vapi: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts "message" from an error body. Vapi sends either a
// string or a list of validation messages.
func errorMessage(data []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Message, &s); err == nil && s != "" {
		return s
	}
	var list []string
	if err := json.Unmarshal(body.Message, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return body.Error
}
