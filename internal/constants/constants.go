package constants

import "time"

// LocalThreadPrefix marks thread ids that only exist in the hosting UI
// runtime and have never been persisted by the backend. A thread with this
// prefix has no history by construction.
const LocalThreadPrefix = "__LOCALID_"

// RecentCacheTTL bounds the recent-window cache class. Recent reads back a
// "has anything changed" poll during active viewing and must stay close to
// real time.
const RecentCacheTTL = 30 * time.Second

// HistoryCacheTTL bounds the full/paginated cache class. Cold pagination of
// an append-only log rarely changes.
const HistoryCacheTTL = 5 * time.Minute

// RecentWindowLimit is the page size for the optimistic recent-window load
// issued when a durable thread becomes active.
const RecentWindowLimit = 10

// FullHistoryLimit is the page size for the background full-history load
// that warms the cache after a recent window reports more messages.
const FullHistoryLimit = 50

// OlderPageLimit is the page size for "load older" pagination.
const OlderPageLimit = 20

// DefaultHistoryLimit is applied when a history request carries no limit.
const DefaultHistoryLimit = 50

// AutoPaginateThreshold: threads with fewer visible messages than this (and
// at least one) are backfilled once without user action.
const AutoPaginateThreshold = 10

// BackgroundLoadDelay defers the full-history load so it does not contend
// with the initial render of the recent window.
const BackgroundLoadDelay = 100 * time.Millisecond

// DefaultAgent is the completion backend used for unmapped persona ids.
const DefaultAgent = "ragAgent"

// FallbackSystemPrompt is used when a persona has no prompt of its own.
const FallbackSystemPrompt = "You are a helpful assistant."

// CompletionTimeout caps a single streamed completion.
const CompletionTimeout = 5 * time.Minute

// UpstreamRequestTimeout caps a single history-service round trip.
const UpstreamRequestTimeout = 30 * time.Second

// EventBufferSize is the per-subscriber buffer on the thread event bus.
const EventBufferSize = 64
