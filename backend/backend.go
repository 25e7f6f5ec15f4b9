package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// GenerateRequest is the body sent to the provider for a single image.
type GenerateRequest struct {
	Prompt              string          `json:"prompt"`
	ImageSize           json.RawMessage `json:"image_size"`
	NumInferenceSteps   int             `json:"num_inference_steps"`
	NumImages           int             `json:"num_images"`
	EnableSafetyChecker bool            `json:"enable_safety_checker"`
}

// Client represents a client to communicate with the image-generation provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a Client for baseURL. A zero timeout leaves the
// outbound call unbounded apart from the caller's context.
func NewBackendClient(baseURL string, timeout time.Duration) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// URL returns the provider endpoint for model.
func (c *Client) URL(model string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, model)
}

// Generate posts body to the model endpoint with the given key and returns the
// raw provider response. The caller owns resp.Body. A non-nil error means no
// response was obtained.
func (c *Client) Generate(ctx context.Context, model, key string, body *GenerateRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(model), bytes.NewReader(payload))
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	req.Header.Set("Authorization", "Key "+key)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

// EncodeError reports a failure to build the outbound request, as opposed to
// a failure to deliver it.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "building provider request: " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
