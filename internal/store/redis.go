package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

// Key layout shared with other actinia services.
const (
	// RedisKeyPrefix prefixes the hash holding one template.
	RedisKeyPrefix = "ACTINIA-MODULE-ID-HASH-PREFIX::"
	// RedisIDDatabase is the hash mapping every template name to itself.
	RedisIDDatabase = "ACTINIA-MODULE-ID-DATABASE"
)

// RedisStore keeps templates in Redis hashes.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client. Close closes the client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(name string) string {
	return RedisKeyPrefix + name
}

// Get returns the template stored under name.
func (s *RedisStore) Get(ctx context.Context, name string) (Record, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(name)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("get template %s: %w", name, err)
	}
	source, ok := fields["template"]
	if !ok {
		return Record{}, notFound(name)
	}
	rec := Record{
		Name:     name,
		Source:   []byte(source),
		Hash:     fields["hash"],
		Revision: cast.ToInt64(fields["revision"]),
	}
	if rec.Hash == "" {
		rec.Hash = ir.TemplateHash(rec.Source)
	}
	return rec, nil
}

// Names returns all registered template names ordered by name.
func (s *RedisStore) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.HKeys(ctx, RedisIDDatabase).Result()
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return names, nil
}

// Create registers the name, then writes the template hash.
func (s *RedisStore) Create(ctx context.Context, name string, source []byte) error {
	if err := checkWrite(name, source); err != nil {
		return err
	}
	added, err := s.client.HSetNX(ctx, RedisIDDatabase, name, name).Result()
	if err != nil {
		return fmt.Errorf("create template %s: %w", name, err)
	}
	if !added {
		return exists(name)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey(name),
			"id", name,
			"template", source,
			"hash", ir.TemplateHash(source),
			"revision", 1,
		)
		return nil
	})
	if err != nil {
		s.client.HDel(ctx, RedisIDDatabase, name)
		return fmt.Errorf("create template %s: %w", name, err)
	}
	return nil
}

// Update overwrites an existing template and bumps its revision.
func (s *RedisStore) Update(ctx context.Context, name string, source []byte) error {
	if err := checkWrite(name, source); err != nil {
		return err
	}
	registered, err := s.client.HExists(ctx, RedisIDDatabase, name).Result()
	if err != nil {
		return fmt.Errorf("update template %s: %w", name, err)
	}
	if !registered {
		return notFound(name)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKey(name),
			"id", name,
			"template", source,
			"hash", ir.TemplateHash(source),
		)
		pipe.HIncrBy(ctx, redisKey(name), "revision", 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update template %s: %w", name, err)
	}
	return nil
}

// Delete unregisters the name and drops the template hash.
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	removed, err := s.client.HDel(ctx, RedisIDDatabase, name).Result()
	if err != nil {
		return fmt.Errorf("delete template %s: %w", name, err)
	}
	if removed == 0 {
		return notFound(name)
	}
	if err := s.client.Del(ctx, redisKey(name)).Err(); err != nil {
		return fmt.Errorf("delete template %s: %w", name, err)
	}
	return nil
}
