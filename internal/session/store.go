// internal/session/store.go
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/db"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is what the console keeps for one logged-in manager: the upstream
// bearer token and the profile used for role gating.
type Session struct {
	ID        string         `json:"id"`
	Token     string         `json:"token"`
	Profile   models.Profile `json:"profile"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Store is the pluggable persistence collaborator for sessions.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// ListIDs returns the ids of all live sessions (for the sweep).
	ListIDs(ctx context.Context) ([]string, error)
}

const sessionPrefix = "session:"

type redisStore struct {
	kv *db.RedisDB
}

func NewRedisStore(kv *db.RedisDB) Store {
	return &redisStore{kv: kv}
}

func (r *redisStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	return r.kv.Set(ctx, sessionPrefix+s.ID, s, ttl)
}

func (r *redisStore) Find(ctx context.Context, id string) (*Session, error) {
	s := &Session{}
	if err := r.kv.Get(ctx, sessionPrefix+id, s); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, sessionPrefix+id)
}

func (r *redisStore) ListIDs(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, sessionPrefix+"*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, sessionPrefix))
	}
	return ids, nil
}
