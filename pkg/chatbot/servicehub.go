package chatbot

import (
	"context"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/svccache"
)

// ServiceHub dispatches the side calls dialog flows declare (weather,
// exchange rates, booking availability). Calls must be idempotent reads;
// that is what makes the cached wrapper safe.
type ServiceHub interface {
	Call(ctx context.Context, service, method string, params map[string]string) (string, error)
}

// CachedHub fronts a ServiceHub with a TTL result cache keyed by
// service.method plus sorted parameters. Generative output never passes
// through here, so the cache-on-user-text hazard does not arise.
type CachedHub struct {
	hub   ServiceHub
	cache *svccache.Cache
}

// NewCachedHub wraps hub with the given cache.
func NewCachedHub(hub ServiceHub, cache *svccache.Cache) *CachedHub {
	return &CachedHub{hub: hub, cache: cache}
}

// Call returns the cached result when fresh, otherwise delegates and stores.
func (h *CachedHub) Call(ctx context.Context, service, method string, params map[string]string) (string, error) {
	key := svccache.Key(service+"."+method, params)
	if value, ok := h.cache.Get(key); ok {
		return value, nil
	}
	value, err := h.hub.Call(ctx, service, method, params)
	if err != nil {
		return "", err
	}
	h.cache.Set(key, value)
	return value, nil
}

// dispatchServiceCalls runs the flow's declared calls. Results only feed
// logging; a failing integration never blocks the response.
func (b *Chatbot) dispatchServiceCalls(ctx context.Context, calls []config.ServiceCall) {
	if b.hub == nil || len(calls) == 0 {
		return
	}
	for _, call := range calls {
		result, err := b.hub.Call(ctx, call.Service, call.Method, call.Params)
		if err != nil {
			logging.Warnf("Service call %s.%s failed: %v", call.Service, call.Method, err)
			continue
		}
		logging.Debugf("Service call %s.%s -> %s", call.Service, call.Method, result)
	}
}
