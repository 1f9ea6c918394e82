package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships a digest to the aggregation topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // distinct groups held before an early flush
	Topic          string
	Publisher      Publisher
}

// Group fields. Warnings about one failing market or error kind collapse into a
// single entry however much the rest of the payload varies.
const (
	kindField   = "kind"
	marketField = "market"
	errorField  = "error"
)

type groupKey struct {
	level, message, kind, market, caller string
}

// AggregatedLogEntry counts one group of warn or error logs within a window.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Kind      string                 `json:"kind,omitempty"`
	Market    string                 `json:"market,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	LastError string                 `json:"last_error,omitempty"`
	Fields    map[string]interface{} `json:"fields"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogDigest is the payload published per flush.
type LogDigest struct {
	From    time.Time            `json:"from"`
	To      time.Time            `json:"to"`
	Entries []AggregatedLogEntry `json:"entries"`
}

type LogCollector struct {
	config *CollectionConfig
	groups map[groupKey]*AggregatedLogEntry
	since  time.Time
	mutex  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const (
	defaultFlushInterval  = 30 * time.Second
	defaultCountThreshold = 100
)

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = defaultFlushInterval
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = defaultCountThreshold
	}
	ctx, cancel := context.WithCancel(context.Background())

	c := &LogCollector{
		config: config,
		groups: make(map[groupKey]*AggregatedLogEntry),
		since:  time.Now(),
		ctx:    ctx,
		cancel: cancel,
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// AddLog counts one log line against its group. Fields of the first line in a group
// are kept as the sample.
func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := groupKey{
		level:   level,
		message: message,
		kind:    stringField(fields, kindField),
		market:  stringField(fields, marketField),
		caller:  caller,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.groups[key]
	if !ok {
		entry = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Kind:      key.kind,
			Market:    key.market,
			Caller:    caller,
			Fields:    fields,
			FirstSeen: now,
		}
		c.groups[key] = entry
	}
	entry.Count++
	entry.LastSeen = now
	if e := stringField(fields, errorField); e != "" {
		entry.LastError = e
	}

	if len(c.groups) >= c.config.CountThreshold {
		c.flushLocked(now)
	}
}

func stringField(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c *LogCollector) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.mutex.Lock()
			c.flushLocked(now)
			c.mutex.Unlock()
		case <-c.ctx.Done():
			c.mutex.Lock()
			c.flushLocked(time.Now())
			c.mutex.Unlock()
			return
		}
	}
}

// flushLocked publishes the current window, busiest groups first. Caller holds the mutex.
func (c *LogCollector) flushLocked(now time.Time) {
	if len(c.groups) == 0 {
		c.since = now
		return
	}
	digest := LogDigest{From: c.since, To: now, Entries: make([]AggregatedLogEntry, 0, len(c.groups))}
	for _, e := range c.groups {
		digest.Entries = append(digest.Entries, *e)
	}
	sort.Slice(digest.Entries, func(i, j int) bool {
		return digest.Entries[i].Count > digest.Entries[j].Count
	})
	c.groups = make(map[groupKey]*AggregatedLogEntry)
	c.since = now

	if c.config.Publisher == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, digest); err != nil {
			// the logger cannot log its own sink failures
			fmt.Fprintf(os.Stderr, "log digest publish failed: %v\n", err)
		}
	}()
}

// Close flushes what is pending and waits for in-flight publishes.
func (c *LogCollector) Close() {
	c.cancel()
	c.wg.Wait()
}
