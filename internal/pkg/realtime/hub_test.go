package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload, ok := <-c.Send():
		require.True(t, ok, "client channel closed")
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send():
		t.Fatalf("unexpected event %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ScopedDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bp := NewMemoryBackplane()
	hub := NewHub(ctx, bp)
	go func() { _ = hub.Start(ctx) }()

	eng := NewClient("alice")
	sales := NewClient("bob")
	require.NoError(t, hub.Register(ctx, eng, "broadcast", "department:Engineering", "user:alice"))
	require.NoError(t, hub.Register(ctx, sales, "broadcast", "department:Sales", "user:bob"))
	assert.Equal(t, 2, hub.Clients("broadcast"))

	require.NoError(t, bp.Publish(ctx, "department:Engineering", []byte("eng-only")))
	assert.Equal(t, "eng-only", string(receive(t, eng)))
	assertNothing(t, sales)

	require.NoError(t, bp.Publish(ctx, "broadcast", []byte("all")))
	assert.Equal(t, "all", string(receive(t, eng)))
	assert.Equal(t, "all", string(receive(t, sales)))

	require.NoError(t, bp.Publish(ctx, "user:bob", []byte("for-bob")))
	assert.Equal(t, "for-bob", string(receive(t, sales)))
	assertNothing(t, eng)
}

func TestHub_UnregisterLeavesEmptyChannels(t *testing.T) {
	ctx := context.Background()
	bp := NewMemoryBackplane()
	hub := NewHub(ctx, bp)

	c1 := NewClient("a")
	c2 := NewClient("b")
	require.NoError(t, hub.Register(ctx, c1, "broadcast", "user:a"))
	require.NoError(t, hub.Register(ctx, c2, "broadcast"))

	hub.Unregister(ctx, c1)
	assert.Equal(t, 1, hub.Clients("broadcast"))
	assert.Equal(t, 0, hub.Clients("user:a"))

	bp.mu.RLock()
	_, joined := bp.subs["user:a"]
	bp.mu.RUnlock()
	assert.False(t, joined)

	_, ok := <-c1.Send()
	assert.False(t, ok)

	// second unregister is a no-op
	hub.Unregister(ctx, c1)
}

func TestHub_RegisterSameChannelTwice(t *testing.T) {
	ctx := context.Background()
	bp := NewMemoryBackplane()
	hub := NewHub(ctx, bp)

	c := NewClient("a")
	require.NoError(t, hub.Register(ctx, c, "broadcast", "broadcast"))
	require.NoError(t, hub.Register(ctx, c, "broadcast", "user:a"))
	assert.Equal(t, []string{"broadcast", "user:a"}, c.rooms)
	assert.Equal(t, 1, hub.Clients("broadcast"))

	hub.Unregister(ctx, c)
	assert.Equal(t, 0, hub.Clients("broadcast"))
	bp.mu.RLock()
	assert.Empty(t, bp.subs["broadcast"])
	bp.mu.RUnlock()
}

func TestEncodeEvent(t *testing.T) {
	payload, err := EncodeEvent("post_created", map[string]string{"id": "p1"})
	require.NoError(t, err)

	var evt struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "post_created", evt.Type)
	assert.Equal(t, "p1", evt.Data["id"])
}

func TestRedisBackplane_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	bp := NewRedisBackplane(rdb)
	sub := bp.Subscribe(ctx)
	defer func() { _ = sub.Close() }()

	require.NoError(t, sub.Join(ctx, "department:Sales"))

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("department:*")) == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, bp.Publish(ctx, "department:Sales", []byte("hello")))

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, "department:Sales", msg.Channel)
		assert.Equal(t, "hello", string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redis message")
	}
}

func TestRedisBackplane_CloseWithoutJoin(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	sub := NewRedisBackplane(rdb).Subscribe(context.Background())
	_ = sub.Close()
	_, ok := <-sub.Messages()
	assert.False(t, ok)
}
