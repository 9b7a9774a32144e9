package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldworks/crewchat/internal/constants"
	"github.com/fieldworks/crewchat/internal/history"
)

// Controller is the thread continuity state machine. It watches the hosting
// runtime for thread-identity and message-count changes and decides when to
// trigger optimistic recent-window loads, background full-history warms and
// one-shot auto-pagination for suspiciously short threads.
//
// All fetch failures are soft: logged, loading flags reset, never a wedged
// loading state. Results of fetches that outlive a thread switch are
// discarded, not applied.
type Controller struct {
	gateway *history.Gateway
	runtime ThreadRuntime
	bus     *Bus

	backgroundDelay time.Duration

	mu                  sync.Mutex
	previousThreadID    string
	loadingConversation bool
	loadingOlder        bool
	autoLoadedThread    string

	events <-chan Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewController creates a controller over gateway and runtime, publishing
// its own events back onto bus.
func NewController(gateway *history.Gateway, runtime ThreadRuntime, bus *Bus) *Controller {
	return &Controller{
		gateway:         gateway,
		runtime:         runtime,
		bus:             bus,
		backgroundDelay: constants.BackgroundLoadDelay,
		done:            make(chan struct{}),
	}
}

// SetBackgroundDelay overrides the deferred-full-load delay, for tests.
func (c *Controller) SetBackgroundDelay(d time.Duration) {
	c.backgroundDelay = d
}

// Start seeds the controller from the runtime's current state, subscribes
// to the bus and begins processing updates. Callers must Close the
// controller on teardown to release the subscription.
func (c *Controller) Start() {
	snapshot := c.runtime.State()
	c.mu.Lock()
	c.previousThreadID = snapshot.ThreadID
	c.autoLoadedThread = ""
	c.mu.Unlock()

	c.events = c.bus.Subscribe()

	// Process the initial state the same way a bus update would be.
	c.handleUpdate()

	c.wg.Add(1)
	go c.loop()
}

// Close unsubscribes from the bus and waits for in-flight work to finish.
func (c *Controller) Close() {
	close(c.done)
	c.bus.Unsubscribe(c.events)
	c.wg.Wait()
}

// Loading reports the controller's loading flags: whether a recent-window
// conversation load or a load-older operation is in flight.
func (c *Controller) Loading() (conversation, older bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingConversation, c.loadingOlder
}

func (c *Controller) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.events:
			if !ok {
				return
			}
			if event.Type == EventRuntimeUpdated {
				c.handleUpdate()
			}
		}
	}
}

// handleUpdate compares the runtime's current state with the last observed
// one and drives the Switching -> RecentLoad -> BackgroundFullLoad cycle
// plus the orthogonal auto-paginate trigger.
func (c *Controller) handleUpdate() {
	snapshot := c.runtime.State()

	var startRecent bool

	c.mu.Lock()
	if snapshot.ThreadID != c.previousThreadID {
		log.Debug().
			Str("from", c.previousThreadID).
			Str("to", snapshot.ThreadID).
			Msg("Thread ID changed")
		c.previousThreadID = snapshot.ThreadID
		c.autoLoadedThread = ""

		if snapshot.ThreadID != "" && !history.IsLocalThread(snapshot.ThreadID) {
			c.loadingConversation = true
			startRecent = true
		} else {
			// New local threads start with zero history; nothing to fetch.
			c.loadingConversation = false
		}
	}

	autoPaginate := snapshot.ThreadID != "" &&
		len(snapshot.Messages) > 0 &&
		len(snapshot.Messages) < constants.AutoPaginateThreshold &&
		c.autoLoadedThread != snapshot.ThreadID
	if autoPaginate {
		c.autoLoadedThread = snapshot.ThreadID
	}
	c.mu.Unlock()

	if startRecent {
		c.wg.Add(1)
		go c.loadRecent(snapshot.ThreadID)
	}

	if autoPaginate {
		log.Debug().Str("thread", snapshot.ThreadID).Msg("Short thread detected, auto-loading older messages")
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.LoadOlder(context.Background())
		}()
	}
}

// isCurrentThread re-checks, at async completion time, that threadID is
// still the active thread. A fetch that resolves after the user switched
// away must not touch the now-current thread's state.
func (c *Controller) isCurrentThread(threadID string) bool {
	return c.runtime.State().ThreadID == threadID
}

// loadRecent performs the optimistic recent-window load for a newly active
// durable thread, then schedules the background full-history warm when the
// window reports more messages upstream.
func (c *Controller) loadRecent(threadID string) {
	defer c.wg.Done()

	page, err := c.gateway.FetchPage(context.Background(), threadID, history.PageQuery{
		Limit:  constants.RecentWindowLimit,
		Recent: true,
	})

	stillCurrent := c.isCurrentThread(threadID)

	c.mu.Lock()
	if stillCurrent {
		// The UI must never hang on a loading state, success or not.
		c.loadingConversation = false
	}
	c.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("thread", threadID).Msg("Failed to load recent history")
		c.bus.Publish(Event{Type: EventLoadFailed, ThreadID: threadID, Data: err, Timestamp: time.Now()})
		return
	}

	if !stillCurrent || !page.HasMore {
		return
	}

	// Deferred so the full fetch does not contend with the initial render.
	timer := time.NewTimer(c.backgroundDelay)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer timer.Stop()
		select {
		case <-c.done:
			return
		case <-timer.C:
		}
		if !c.isCurrentThread(threadID) {
			return
		}
		// Cache warming only: the recent window is already on screen and
		// subsequent pagination hits the warmed cache.
		if _, err := c.gateway.FetchPage(context.Background(), threadID, history.PageQuery{
			Limit: constants.FullHistoryLimit,
		}); err != nil {
			log.Error().Err(err).Str("thread", threadID).Msg("Failed to load full history in background")
		}
	}()
}

// LoadOlder fetches the page of messages preceding the oldest visible one
// and hands it to the runtime. At most one invocation runs at a time; an
// empty result is the normal "no more history" terminal outcome.
func (c *Controller) LoadOlder(ctx context.Context) {
	c.mu.Lock()
	if c.loadingOlder {
		c.mu.Unlock()
		return
	}
	c.loadingOlder = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loadingOlder = false
		c.mu.Unlock()
	}()

	snapshot := c.runtime.State()
	if snapshot.ThreadID == "" {
		log.Error().Msg("No active thread ID to paginate")
		return
	}
	if len(snapshot.Messages) == 0 {
		log.Debug().Msg("No current messages to paginate from")
		return
	}
	oldestID := snapshot.Messages[0].ID

	page, err := c.gateway.FetchPage(ctx, snapshot.ThreadID, history.PageQuery{
		Limit:           constants.OlderPageLimit,
		BeforeMessageID: oldestID,
	})
	if err != nil {
		log.Error().Err(err).Str("thread", snapshot.ThreadID).Msg("Failed to load older messages")
		c.bus.Publish(Event{Type: EventLoadFailed, ThreadID: snapshot.ThreadID, Data: err, Timestamp: time.Now()})
		return
	}

	if len(page.Messages) == 0 {
		log.Debug().Str("thread", snapshot.ThreadID).Msg("No more older messages")
		return
	}

	if !c.isCurrentThread(snapshot.ThreadID) {
		log.Debug().Str("thread", snapshot.ThreadID).Msg("Thread switched during load, discarding older messages")
		return
	}

	batch := make([]Message, len(page.Messages))
	for i, m := range page.Messages {
		// The runtime needs fresh ids; the store's creation time is not
		// preserved in this mapping.
		batch[i] = Message{
			ID:        uuid.NewString(),
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: time.Now(),
		}
	}

	c.runtime.Import(batch)
	c.bus.Publish(Event{
		Type:      EventHistoryImported,
		ThreadID:  snapshot.ThreadID,
		Data:      len(batch),
		Timestamp: time.Now(),
	})
}
