// Package llm implements the chat-completion providers behind ai.Provider.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halo-extras/backend/internal/domain/ai"
)

const (
	// maxResponseSize limits a non-streamed response body
	maxResponseSize = 8 * 1024 * 1024
	// maxErrorBodySize limits how much of a failed response is kept in the error
	maxErrorBodySize = 4 * 1024
	// DefaultTimeout applies when no client is injected
	DefaultTimeout = 120 * time.Second
)

// transport is the HTTP plumbing shared by the JSON providers
type transport struct {
	provider   string
	httpClient *http.Client
}

func newTransport(provider string, httpClient *http.Client) transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return transport{provider: provider, httpClient: httpClient}
}

// send posts body as JSON and returns the response for the caller to consume.
// Non-2xx responses are drained and converted to a status error.
func (t transport) send(ctx context.Context, op, url, apiKey string, body any, headers map[string]string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, ai.NewDecodeError(t.provider, op, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, ai.NewTransportError(t.provider, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, ai.NewTransportError(t.provider, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, ai.NewStatusError(t.provider, op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// postJSON performs a blocking request and returns the raw body
func (t transport) postJSON(ctx context.Context, op, url, apiKey string, body any, headers map[string]string) (string, error) {
	resp, err := t.send(ctx, op, url, apiKey, body, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", ai.NewTransportError(t.provider, op, fmt.Errorf("failed to read response: %w", err))
	}
	return string(raw), nil
}

// eventHandler receives the payload of one SSE data line. Returning done=true
// ends the stream without error.
type eventHandler func(data string) (done bool, err error)

// readEvents walks an SSE body line by line. Lines without the "data:" prefix
// and blank payloads are skipped; "[DONE]" ends the stream. Errors returned
// by handle are passed through unchanged.
func (t transport) readEvents(ctx context.Context, op string, body io.Reader, handle eventHandler) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return ai.NewTransportError(t.provider, op, err)
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		done, err := handle(data)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ai.NewTransportError(t.provider, op, ctx.Err())
		}
		return ai.NewTransportError(t.provider, op, fmt.Errorf("failed to read stream: %w", err))
	}
	return nil
}

// upstreamError reports an error object embedded in a 2xx payload
func upstreamError(provider, op, msg string) *ai.ProviderError {
	return &ai.ProviderError{
		Provider: provider,
		Op:       op,
		Kind:     ai.KindUpstream,
		Err:      fmt.Errorf("API error: %s", msg),
	}
}

func requireConfig(provider, op string, cfg ai.ProviderConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ai.NewConfigError(provider, op, "API key not configured")
	}
	if strings.TrimSpace(cfg.ModelName) == "" {
		return ai.NewConfigError(provider, op, "model name not configured")
	}
	return nil
}
