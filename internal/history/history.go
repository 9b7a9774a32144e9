// Package history proxies and caches paginated conversation history reads
// against the external agent backend.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldworks/crewchat/internal/constants"
)

// Message is a single turn from the remote conversation log.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one page of history, ordered oldest-first.
type Page struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"hasMore"`
}

// PageQuery describes the shape of a history read.
type PageQuery struct {
	Limit           int
	BeforeMessageID string
	Recent          bool
}

// IsLocalThread reports whether id names a thread that only exists in the
// hosting runtime and has never been persisted.
func IsLocalThread(id string) bool {
	return strings.HasPrefix(id, constants.LocalThreadPrefix)
}

const recentKeyPrefix = "recent_"

// CacheKey derives the deterministic cache key for a read. Recent-window
// reads get their own keyspace so they expire on the short TTL class.
func CacheKey(conversationID string, q PageQuery) string {
	if q.Recent {
		return recentKeyPrefix + conversationID
	}
	cursor := q.BeforeMessageID
	if cursor == "" {
		cursor = "initial"
	}
	return fmt.Sprintf("%s_%d_%s", conversationID, q.Limit, cursor)
}

func isRecentKey(key string) bool {
	return strings.HasPrefix(key, recentKeyPrefix)
}
