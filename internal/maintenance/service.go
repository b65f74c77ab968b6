package maintenance

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/db"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

const snapshotKey = "maintenance:snapshot"

// API is the slice of the upstream client the maintenance service needs.
type API interface {
	MaintenanceStatus(ctx context.Context, token string) ([]upstream.DiskStatus, []upstream.ServiceStatus, error)
}

// Snapshot is the cached health view served to the disk and service panels.
type Snapshot struct {
	Disks     []upstream.DiskStatus    `json:"disks"`
	Services  []upstream.ServiceStatus `json:"services"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// Service caches upstream health in Redis so every dashboard tab does not
// hammer the maintenance endpoint. Refresh runs on a schedule; Snapshot
// serves the cache and only refreshes when it is empty.
type Service struct {
	api API
	kv  *db.RedisDB
	ttl time.Duration

	mu    sync.Mutex
	token string
}

func NewService(api API, kv *db.RedisDB, ttl time.Duration) *Service {
	return &Service{api: api, kv: kv, ttl: ttl}
}

// SetToken records the upstream token used for scheduled refreshes. The
// cron job has no session of its own, so it borrows the most recent
// admin login.
func (s *Service) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Snapshot returns the cached health view, refreshing it first when the
// cache is empty or expired.
func (s *Service) Snapshot(ctx context.Context, token string) (Snapshot, error) {
	var snap Snapshot
	err := s.kv.Get(ctx, snapshotKey, &snap)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return Snapshot{}, err
	}
	return s.Refresh(ctx, token)
}

// Refresh fetches fresh health data and overwrites the cache.
func (s *Service) Refresh(ctx context.Context, token string) (Snapshot, error) {
	disks, services, err := s.api.MaintenanceStatus(ctx, token)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Disks: disks, Services: services, FetchedAt: time.Now().UTC()}
	if err := s.kv.Set(ctx, snapshotKey, snap, s.ttl); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// RefreshScheduled is the cron entrypoint. It is a no-op until a token
// has been recorded.
func (s *Service) RefreshScheduled(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return
	}
	if _, err := s.Refresh(ctx, token); err != nil {
		log.Printf("[Maintenance] ⚠️ scheduled refresh failed: %v", err)
	}
}
