// Package gateway talks to the chat-completions backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"techhourse/internal/logging"
)

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client issues completion requests. It is safe for concurrent use and is
// meant to be created once per process.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	logger   *logging.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds dialing, the TLS handshake, waiting for response
	// headers and the whole exchange.
	Timeout time.Duration
}

// NewClient creates a client for the OpenAI-compatible endpoint at
// opts.BaseURL.
func NewClient(opts Options, logger *logging.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	dialer := &net.Dialer{Timeout: opts.Timeout}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.Timeout,
		ResponseHeaderTimeout: opts.Timeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		endpoint: strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
		apiKey:   opts.APIKey,
		model:    opts.Model,
		http:     &http.Client{Timeout: opts.Timeout, Transport: transport},
		logger:   logging.OrDiscard(logger),
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

// Complete sends message with an optional system prompt and classifies the
// outcome. Failures are reported through the returned Result, never panics
// or errors.
func (c *Client) Complete(ctx context.Context, message, systemPrompt string) Result {
	logger := c.logger.WithFields(map[string]interface{}{
		"model":       c.model,
		"message_len": len(message),
		"system_len":  len(systemPrompt),
		"has_system":  systemPrompt != "",
	})
	logger.Debug("starting completion request")
	start := time.Now()

	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: message})

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return c.finish(logger, start, Result{Kind: KindFailure, Err: fmt.Errorf("marshal request: %w", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.finish(logger, start, Result{Kind: KindFailure, Err: fmt.Errorf("create request: %w", err)})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.finish(logger, start, Result{Kind: classify(ctx, err), Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		res := Result{
			Kind:       statusKind(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))),
		}
		return c.finish(logger, start, res)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		kind := classify(ctx, err)
		if kind == KindUnreachable {
			kind = KindFailure
		}
		return c.finish(logger, start, Result{Kind: kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)})
	}

	reply := ""
	if len(decoded.Choices) > 0 {
		reply = strings.TrimSpace(decoded.Choices[0].Message.Content)
	}
	if reply == "" {
		return c.finish(logger, start, Result{Kind: KindEmpty, StatusCode: resp.StatusCode})
	}
	return c.finish(logger, start, Result{Kind: KindOK, Reply: reply, StatusCode: resp.StatusCode})
}

func (c *Client) finish(logger *logging.Logger, start time.Time, res Result) Result {
	fields := map[string]interface{}{
		"kind":       res.Kind,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if res.StatusCode != 0 {
		fields["status"] = res.StatusCode
	}
	if res.Kind == KindOK {
		fields["reply_len"] = len(res.Reply)
		logger.WithFields(fields).Debug("completion request finished")
		return res
	}
	if res.Err != nil {
		fields["error"] = res.Err.Error()
	}
	logger.WithFields(fields).Warn("completion request failed")
	return res
}

func statusKind(code int) Kind {
	switch code {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindHTTPError
	}
}

// classify maps a transport error to a Kind. The caller's context is
// checked first so an expired deadline is never reported as a network
// timeout.
func classify(ctx context.Context, err error) Kind {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return KindTimedOut
	case errors.Is(ctx.Err(), context.Canceled):
		return KindCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return KindUnreachable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransportTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindUnreachable
	}
	return KindFailure
}
