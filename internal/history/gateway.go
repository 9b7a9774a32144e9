package history

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the upstream surface the gateway needs; satisfied by *Client
// and by test fakes.
type Fetcher interface {
	GetHistory(ctx context.Context, conversationID string, q PageQuery) (Page, error)
	Conversations(ctx context.Context, userID string) (int, []byte, error)
}

// Gateway serves history pages, reading through the TTL cache and
// normalizing the upstream's 404-for-empty convention. Concurrent misses on
// the same key coalesce into a single upstream call.
type Gateway struct {
	fetcher Fetcher
	cache   *TTLCache
	group   singleflight.Group
}

// NewGateway creates a gateway over fetcher backed by cache.
func NewGateway(fetcher Fetcher, cache *TTLCache) *Gateway {
	return &Gateway{fetcher: fetcher, cache: cache}
}

// Cache exposes the gateway's cache, mainly for tests.
func (g *Gateway) Cache() *TTLCache {
	return g.cache
}

// FetchPage returns one page of history for conversationID.
//
// Local thread ids short-circuit to an empty page: a not-yet-durable thread
// has no history by construction, so there is no network call and no cache
// interaction. An upstream 404 is synthesized into an empty page and cached
// like a success. The cache is only written on success paths.
func (g *Gateway) FetchPage(ctx context.Context, conversationID string, q PageQuery) (Page, error) {
	if IsLocalThread(conversationID) {
		return Page{Messages: []Message{}, HasMore: false}, nil
	}

	key := CacheKey(conversationID, q)
	if page, ok := g.cache.Get(key); ok {
		return page, nil
	}

	result, err, _ := g.group.Do(key, func() (interface{}, error) {
		// Another flight may have populated the key while we queued.
		if page, ok := g.cache.Get(key); ok {
			return page, nil
		}

		page, err := g.fetcher.GetHistory(ctx, conversationID, q)
		if errors.Is(err, errUpstreamNotFound) {
			// 404 means "no history yet", not a failure.
			page = Page{Messages: []Message{}, HasMore: false}
			err = nil
		}
		if err != nil {
			return Page{}, err
		}

		g.cache.Put(key, page)
		return page, nil
	})
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Str("key", key).Msg("History fetch failed")
		return Page{}, err
	}

	return result.(Page), nil
}

// Conversations proxies the upstream conversation list without caching.
func (g *Gateway) Conversations(ctx context.Context, userID string) (int, []byte, error) {
	return g.fetcher.Conversations(ctx, userID)
}
