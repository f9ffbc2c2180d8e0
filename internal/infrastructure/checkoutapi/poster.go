package checkoutapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/DanielPopoola/ficmart-checkout/internal/config"
)

// Poster sends a JSON body to url and returns the raw response body.
type Poster interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) ([]byte, error)
}

type HTTPPoster struct {
	httpClient *http.Client
	userAgent  string
}

func NewHTTPPoster(cfg config.CheckoutAPIConfig) *HTTPPoster {
	return &HTTPPoster{
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
		userAgent: cfg.UserAgent,
	}
}

func (p *HTTPPoster) Post(ctx context.Context, url string, headers map[string]string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}
