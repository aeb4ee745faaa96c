package position

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"BreakoutSentinel/internal/model"
)

// RedisStore keeps the book as one JSON value under Key. A single SET
// replaces it, which is atomic on the server.
type RedisStore struct {
	Client     redis.Cmdable
	Key        string
	Normalizer Normalizer
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client redis.Cmdable, key string, n Normalizer) *RedisStore {
	return &RedisStore{Client: client, Key: key, Normalizer: n}
}

func (s *RedisStore) Load(ctx context.Context) (model.Book, error) {
	data, err := s.Client.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.Key, err)
	}
	book := model.Book{}
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("decode positions %s: %w", s.Key, err)
	}
	return s.Normalizer.apply(book), nil
}

func (s *RedisStore) Save(ctx context.Context, book model.Book) error {
	if book == nil {
		book = model.Book{}
	}
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	if err := s.Client.Set(ctx, s.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key, err)
	}
	return nil
}
