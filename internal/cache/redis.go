package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/danek0100/External-Observer/internal/model"
	"github.com/gofrs/uuid/v5"
	redis "github.com/redis/go-redis/v9"
)

// goneVersion tags a tombstone; no real version reaches it.
const goneVersion int64 = 1<<53 - 1

const (
	fieldVersion = "v"
	fieldDoc     = "doc"
)

func documentKey(id uuid.UUID) string {
	return "observer:document:" + id.String()
}

func ownerIndexKey(owner string) string {
	return "observer:owner:" + owner + ":documents"
}

func ownerGoneKey(owner string) string {
	return "observer:owner:" + owner + ":deleted"
}

// setScript writes a document hash only when it is newer than what is cached
// and the owner has not been purged. The id joins the owner index in the same step.
//
// KEYS: document, owner index, owner tombstone. ARGV: version, json, ttl ms, id.
var setScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[3]) == 1 then return 0 end
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then return 0 end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'doc', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('SADD', KEYS[2], ARGV[4])
redis.call('PEXPIRE', KEYS[2], ARGV[3])
return 1
`)

var _ DocumentCache = (*Redis)(nil)

// Redis keeps each document as a hash {v: version, doc: json} under
// observer:document:<id> with a TTL. A hash with only v = goneVersion is a tombstone.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis connects to addr. The connection is verified with PING.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return NewRedisWithClient(client, ttl), client, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	buf, err := r.client.HGet(ctx, documentKey(id), fieldDoc).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d model.Document
	if err := json.Unmarshal(buf, &d); err != nil {
		// a corrupt value is dropped and treated as a miss
		_ = r.client.Del(ctx, documentKey(id)).Err()
		return nil, nil
	}
	return &d, nil
}

func (r *Redis) Set(ctx context.Context, d *model.Document) error {
	buf, err := json.Marshal(d)
	if err != nil {
		return err
	}
	keys := []string{documentKey(d.ID), ownerIndexKey(d.Owner), ownerGoneKey(d.Owner)}
	return setScript.Run(ctx, r.client, keys, d.Version, buf, r.ttl.Milliseconds(), d.ID.String()).Err()
}

// Invalidate replaces the entry with a tombstone that outlives any in-flight fill.
func (r *Redis) Invalidate(ctx context.Context, id uuid.UUID) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		r.tombstone(ctx, p, documentKey(id))
		return nil
	})
	return err
}

// InvalidateOwner marks owner as purged first, so no fill can slip in behind the
// sweep, then tombstones every indexed document.
func (r *Redis) InvalidateOwner(ctx context.Context, owner string) error {
	if err := r.client.Set(ctx, ownerGoneKey(owner), 1, r.ttl).Err(); err != nil {
		return err
	}
	ids, err := r.client.SMembers(ctx, ownerIndexKey(owner)).Result()
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range ids {
			r.tombstone(ctx, p, "observer:document:"+id)
		}
		p.Del(ctx, ownerIndexKey(owner))
		return nil
	})
	return err
}

func (r *Redis) tombstone(ctx context.Context, p redis.Pipeliner, key string) {
	p.Del(ctx, key)
	p.HSet(ctx, key, fieldVersion, goneVersion)
	p.PExpire(ctx, key, r.ttl)
}

// Ping reports whether Redis answers.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
