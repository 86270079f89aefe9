package idemstore

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint for SCAN and the DEL batch size used by Clear.
const scanBatch = 100

// Redis implements Driver on top of a Redis server or cluster.
// Presence is a plain string key whose value is the insertion time in unix nanoseconds.
type Redis struct {
	client redis.UniversalClient
	owned  bool
	closed atomic.Bool
}

// NewRedis wraps a caller-owned client. Close does not close the client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// DialRedis creates a client from opts. Close closes the client.
func DialRedis(opts *redis.Options) *Redis {
	return &Redis{client: redis.NewClient(opts), owned: true}
}

// Client returns the underlying client.
func (r *Redis) Client() redis.UniversalClient { return r.client }

func (r *Redis) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.closed.Load() {
		return false, ErrStoreClosed
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.SetNX(ctx, key, time.Now().UnixNano(), ttl).Result()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	if r.closed.Load() {
		return false, ErrStoreClosed
	}
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) Delete(ctx context.Context, key string) (bool, error) {
	if r.closed.Load() {
		return false, ErrStoreClosed
	}
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear scans for keys with prefix and deletes them in batches.
// On a cluster client every master is scanned.
func (r *Redis) Clear(ctx context.Context, prefix string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	match := escapeGlob(prefix) + "*"
	if cc, ok := r.client.(*redis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return clearNode(ctx, node, match)
		})
	}
	return clearNode(ctx, r.client, match)
}

// clearNode deletes the keys of one node matching match. Keys are deleted
// one per command in a pipeline, so batches may span cluster hash slots.
func clearNode(ctx context.Context, c redis.Cmdable, match string) error {
	iter := c.Scan(ctx, 0, match, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := c.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range batch {
				pipe.Del(ctx, key)
			}
			return nil
		})
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return flush()
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r.closed.Swap(true) || !r.owned {
		return nil
	}
	return r.client.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
