package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Config is the client's immutable configuration. An empty Endpoint means the
// feature is disabled; Enhance reports that as service_unavailable without
// performing any I/O.
type Config struct {
	Endpoint          string
	Timeout           time.Duration
	Formats           []Format
	Locale            string
	MaxDraftBytes     int // advisory cap, not enforced here
	MaxRecentMessages int
	SupportsCancel    bool
}

// Client performs enhancement calls against the configured service.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient builds a client whose transport timeout bounds the whole request
// lifetime. A non-positive timeout degrades to a client with no explicit
// timeout; it never prevents the call from being attempted.
func NewClient(cfg Config) *Client {
	hc := &http.Client{}
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	} else {
		log.Printf("warning: enhancer timeout not set, using no transport timeout")
	}
	return &Client{config: cfg, http: hc}
}

const bodyPreviewBytes = 500

type doResult struct {
	resp *http.Response
	err  error
}

type readResult struct {
	body []byte
	err  error
}

// Enhance executes one enhancement call. Cancellation via handle is observed
// before the request is sent, while it is in flight, and while the body is
// being read; if it fires first at any of those points the in-flight I/O is
// abandoned and the cancellation error is returned. Exactly one of the
// enhanced text or an *Error is produced per call.
func (c *Client) Enhance(req Request, handle *Handle) (string, *Error) {
	if handle.Cancelled() {
		return "", cancelledError()
	}

	if c.config.Endpoint == "" {
		return "", &Error{
			Code:    CodeServiceUnavailable,
			Message: "Prompt enhancer endpoint is not configured.",
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Code: CodeInternal, Message: fmt.Sprintf("encode request: %v", err)}
	}

	ctx, abandon := context.WithCancel(context.Background())
	defer abandon()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Code: CodeInternal, Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Printf("enhance: sending request to %s", c.config.Endpoint)

	sent := make(chan doResult, 1)
	go func() {
		resp, err := c.http.Do(httpReq)
		sent <- doResult{resp: resp, err: err}
	}()

	var resp *http.Response
	select {
	case <-handle.Done():
		abandon()
		return "", cancelledError()
	case result := <-sent:
		if result.err != nil {
			log.Printf("warning: enhancer request failed: %v", result.err)
			return "", classifyTransport(result.err)
		}
		resp = result.resp
	}

	if handle.Cancelled() {
		resp.Body.Close()
		return "", cancelledError()
	}

	log.Printf("enhance: received response with status %d", resp.StatusCode)

	read := make(chan readResult, 1)
	go func() {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		read <- readResult{body: body, err: err}
	}()

	var body []byte
	select {
	case <-handle.Done():
		abandon()
		return "", cancelledError()
	case result := <-read:
		if result.err != nil {
			log.Printf("warning: failed to read enhancer response body: %v", result.err)
			return "", classifyTransport(result.err)
		}
		body = result.body
	}

	if handle.Cancelled() {
		return "", cancelledError()
	}

	log.Printf("enhance: response body preview: %s", preview(body))

	return classify(resp.StatusCode, body)
}

// classify turns a terminal (status, body) pair into the single call outcome.
// On 2xx the body must be JSON; the enhanced prompt wins over an embedded
// error object, and an empty object is an internal failure. On any other
// status the body is parsed best-effort and the status mapping is the
// fallback, with the raw status and body preserved in the message.
func classify(status int, body []byte) (string, *Error) {
	if status >= 200 && status < 300 {
		var parsed wireResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			log.Printf("warning: enhancer success response is not valid JSON: %v", err)
			return "", &Error{
				Code:    CodeInternal,
				Message: fmt.Sprintf("Failed to parse enhancer response: %v", err),
			}
		}

		if parsed.EnhancedPrompt != nil {
			return *parsed.EnhancedPrompt, nil
		}

		if parsed.Error != nil {
			code := CodeInternal
			if parsed.Error.Code != nil {
				code = mapErrorCode(*parsed.Error.Code)
			}
			message := "Prompt enhancer returned an error without message"
			if parsed.Error.Message != nil {
				message = *parsed.Error.Message
			}
			return "", &Error{Code: code, Message: message}
		}

		return "", &Error{
			Code:    CodeInternal,
			Message: "Prompt enhancer returned an empty response.",
		}
	}

	var parsed wireResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		code := mapStatus(status)
		if parsed.Error.Code != nil {
			code = mapErrorCode(*parsed.Error.Code)
		}
		message := fmt.Sprintf("Prompt enhancer error (%d): %s", status, body)
		if parsed.Error.Message != nil {
			message = *parsed.Error.Message
		}
		return "", &Error{Code: code, Message: message}
	}

	return "", &Error{
		Code:    mapStatus(status),
		Message: fmt.Sprintf("Prompt enhancer HTTP %d: %s", status, body),
	}
}

func preview(body []byte) string {
	if len(body) <= bodyPreviewBytes {
		return string(body)
	}
	return string(body[:bodyPreviewBytes]) + "..."
}
