package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopDiscards(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PostCreated(context.Background(), PostCreated{Slug: "x"}))
	assert.NoError(t, p.Close())
}

func TestConnectFailsWithoutServer(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1")
	assert.Error(t, err)
}

func TestPostCreatedPayload(t *testing.T) {
	ev := PostCreated{
		ID:          "id-1",
		Slug:        "hello",
		Title:       "Hello",
		ArticleURL:  "https://medium.com/hello",
		Tags:        []string{"go"},
		PublishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "hello", m["slug"])
	assert.Equal(t, "2024-01-02T03:04:05Z", m["published_at"])
	assert.NotContains(t, m, "category")
}

func TestNATSPublishesPostCreated(t *testing.T) {
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	srv := natstest.RunServer(&opts)
	defer srv.Shutdown()

	sub, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer sub.Close()
	msgs, err := sub.SubscribeSync(SubjectPostCreated)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	p, err := Connect(srv.ClientURL())
	require.NoError(t, err)

	ev := PostCreated{
		ID:          "id-1",
		Slug:        "hello",
		Title:       "Hello",
		ArticleURL:  "https://medium.com/hello",
		Category:    "Engineering",
		Tags:        []string{"Go", "NATS"},
		PublishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.PostCreated(context.Background(), ev))

	msg, err := msgs.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, SubjectPostCreated, msg.Subject)
	assert.JSONEq(t, `{
		"id": "id-1",
		"slug": "hello",
		"title": "Hello",
		"article_url": "https://medium.com/hello",
		"category": "Engineering",
		"tags": ["Go", "NATS"],
		"published_at": "2024-01-02T03:04:05Z"
	}`, string(msg.Data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PostCreated(ctx, ev), context.Canceled)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}
