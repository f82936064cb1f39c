// Package events announces changes to the post collection to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPostCreated is the NATS subject a new post is published on.
const SubjectPostCreated = "linkpress.posts.created"

// PostCreated is the payload of SubjectPostCreated.
type PostCreated struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	ArticleURL  string    `json:"article_url"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher sends domain events.
type Publisher interface {
	PostCreated(ctx context.Context, ev PostCreated) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PostCreated(context.Context, PostCreated) error { return nil }
func (Nop) Close() error                                  { return nil }

// NATS publishes events as JSON on a core NATS connection.
type NATS struct {
	nc     *nats.Conn
	mu     sync.Mutex
	closed bool
}

// Connect dials the NATS server at url.
func Connect(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("linkpress"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect to NATS: %w", err)
	}
	return &NATS{nc: nc}, nil
}

// PostCreated implements Publisher. NATS Publish does not take a context, so
// the context is only checked before sending.
func (p *NATS) PostCreated(ctx context.Context, ev PostCreated) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("events: context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectPostCreated, data)
}

// Close drains pending messages and closes the connection.
func (p *NATS) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}
