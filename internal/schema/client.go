package schema

import (
	"fmt"
	"net/http"
	"time"
)

// Client verifies that a schema URL is actually reachable before the hook
// starts pinning files to it.
type Client struct {
	HTTPClient *http.Client
}

// NewClient creates a schema URL client with a sane timeout.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithHTTPClient creates a schema URL client with a custom HTTP
// client.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{HTTPClient: httpClient}
}

// VerifyURL checks that the schema document exists at the given URL. Some
// raw-file hosts reject HEAD, so a failed HEAD falls back to GET.
func (c *Client) VerifyURL(url string) error {
	resp, err := c.HTTPClient.Head(url)
	if err == nil && resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		return nil
	}
	if resp != nil {
		resp.Body.Close()
	}

	resp, err = c.HTTPClient.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("schema URL returned %d: %s", resp.StatusCode, url)
	}

	return nil
}
