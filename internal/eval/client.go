package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// DefaultBaseURL is the machine learning API root of a local server.
const DefaultBaseURL = "http://localhost:8080/v1/ml"

// Client calls the machine learning routes of a gear-smarts server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client rooted at baseURL (for example DefaultBaseURL).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type featuresRequest struct {
	Features []string `json:"features"`
}

// Train submits one labeled observation.
func (c *Client) Train(ctx context.Context, namespace, class string, features []string) error {
	u := c.baseURL + "/" + url.PathEscape(namespace) + "/train/" + url.PathEscape(class)
	return c.do(ctx, http.MethodPost, u, featuresRequest{Features: features}, nil)
}

// Classify returns the predicted label. ok is false when the server
// returned a null classification.
func (c *Client) Classify(ctx context.Context, namespace string, features []string) (label string, ok bool, err error) {
	var resp struct {
		Classification *string `json:"classification"`
	}
	u := c.baseURL + "/" + url.PathEscape(namespace) + "/classify"
	if err := c.do(ctx, http.MethodPost, u, featuresRequest{Features: features}, &resp); err != nil {
		return "", false, err
	}
	if resp.Classification == nil {
		return "", false, nil
	}
	return *resp.Classification, true, nil
}

// Dump returns the namespace's training set.
func (c *Client) Dump(ctx context.Context, namespace string) ([]domain.LabeledRow, error) {
	var resp struct {
		Dataset []domain.LabeledRow `json:"dataset"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(namespace), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dataset, nil
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
