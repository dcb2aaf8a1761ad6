package chatbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/svccache"
)

// stubHub records the calls it receives and returns a canned result.
type stubHub struct {
	result string
	err    error

	calls       int
	lastService string
	lastMethod  string
	lastParams  map[string]string
}

func (s *stubHub) Call(_ context.Context, service, method string, params map[string]string) (string, error) {
	s.calls++
	s.lastService = service
	s.lastMethod = method
	s.lastParams = params
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func testServiceCache() *svccache.Cache {
	return svccache.New(config.CacheConfig{
		Enabled:        true,
		TTLSeconds:     60,
		MaxEntries:     8,
		EvictionPolicy: "lru",
	})
}

func TestCachedHubServesRepeatsFromCache(t *testing.T) {
	inner := &stubHub{result: "sunny, 31C"}
	hub := NewCachedHub(inner, testServiceCache())

	for i := 0; i < 3; i++ {
		got, err := hub.Call(context.Background(), "weather", "forecast", map[string]string{"city": "cairo"})
		if err != nil {
			t.Fatalf("Call() error: %v", err)
		}
		if got != "sunny, 31C" {
			t.Fatalf("Call() = %q, want cached result", got)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (repeats served from cache)", inner.calls)
	}

	if _, err := hub.Call(context.Background(), "weather", "forecast", map[string]string{"city": "luxor"}); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 (different params miss)", inner.calls)
	}
}

func TestCachedHubNeverCachesFailures(t *testing.T) {
	inner := &stubHub{err: errors.New("upstream down")}
	hub := NewCachedHub(inner, testServiceCache())

	for i := 0; i < 2; i++ {
		if _, err := hub.Call(context.Background(), "weather", "forecast", nil); err == nil {
			t.Fatal("expected the upstream error to surface")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 (errors are not cached)", inner.calls)
	}
}

func TestHTTPHubCall(t *testing.T) {
	var gotPath, gotCity string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCity = r.URL.Query().Get("city")
		fmt.Fprint(w, "sunny, 31C\n")
	}))
	defer srv.Close()

	hub := NewHTTPHub(map[string]config.ServiceEndpoint{
		"weather": {BaseURL: srv.URL + "/api/weather", TimeoutSeconds: 2},
	})

	out, err := hub.Call(context.Background(), "weather", "forecast", map[string]string{"city": "cairo"})
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if out != "sunny, 31C" {
		t.Errorf("Call() = %q, want trimmed body", out)
	}
	if gotPath != "/api/weather/forecast" {
		t.Errorf("request path = %q, want /api/weather/forecast", gotPath)
	}
	if gotCity != "cairo" {
		t.Errorf("city param = %q, want cairo", gotCity)
	}
}

func TestHTTPHubUnknownService(t *testing.T) {
	hub := NewHTTPHub(map[string]config.ServiceEndpoint{})

	if _, err := hub.Call(context.Background(), "booking", "availability", nil); err == nil {
		t.Error("expected an error for an unconfigured service")
	}
}

func TestHTTPHubNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	hub := NewHTTPHub(map[string]config.ServiceEndpoint{
		"weather": {BaseURL: srv.URL, TimeoutSeconds: 2},
	})

	if _, err := hub.Call(context.Background(), "weather", "forecast", nil); err == nil {
		t.Error("expected an error for a non-200 reply")
	}
}
