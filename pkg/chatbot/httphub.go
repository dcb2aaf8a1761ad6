package chatbot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

// maxServiceBody caps how much of a service reply is read.
const maxServiceBody = 1 << 16

// HTTPHub dispatches service calls as GET requests against the configured
// endpoints: {base_url}/{method} with the parameters as a query string. Only
// read-style integrations belong here; the cached wrapper assumes repeated
// calls are safe.
type HTTPHub struct {
	endpoints map[string]config.ServiceEndpoint
	client    *http.Client
}

// NewHTTPHub builds a hub over the configured endpoints.
func NewHTTPHub(endpoints map[string]config.ServiceEndpoint) *HTTPHub {
	return &HTTPHub{
		endpoints: endpoints,
		client:    &http.Client{},
	}
}

// Call performs the request and returns the response body as text.
func (h *HTTPHub) Call(ctx context.Context, service, method string, params map[string]string) (string, error) {
	ep, ok := h.endpoints[service]
	if !ok {
		return "", fmt.Errorf("no endpoint configured for service '%s'", service)
	}

	ctx, cancel := context.WithTimeout(ctx, ep.Timeout())
	defer cancel()

	u := strings.TrimRight(ep.BaseURL, "/") + "/" + url.PathEscape(method)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("building %s.%s request: %w", service, method, err)
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s.%s: %w", service, method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxServiceBody))
	if err != nil {
		return "", fmt.Errorf("reading %s.%s response: %w", service, method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s.%s returned status %d", service, method, resp.StatusCode)
	}
	return strings.TrimSpace(string(body)), nil
}
