package cron

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/config"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/maintenance"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	cfg         *config.Config
	sessions    *session.Service
	workspaces  *console.Manager
	maintenance *maintenance.Service
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.Config, sessions *session.Service, workspaces *console.Manager, maint *maintenance.Service) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		cfg:         cfg,
		sessions:    sessions,
		workspaces:  workspaces,
		maintenance: maint,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Reclaim workspaces whose Redis session entry has expired
	s.cron.AddFunc(s.cfg.SessionSweepSpec, func() {
		log.Println("[Cron] Running session sweep...")
		s.sweepSessions()
	})

	// Keep the maintenance snapshot warm
	s.cron.AddFunc(s.cfg.MaintenanceRefreshSpec, func() {
		log.Println("[Cron] Running maintenance refresh...")
		s.maintenance.RefreshScheduled(context.Background())
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// sweepSessions drops widget state for sessions Redis has expired
func (s *Scheduler) sweepSessions() {
	ctx := context.Background()

	known := s.workspaces.SessionIDs()
	if len(known) == 0 {
		return
	}

	swept := s.sessions.SweepExpired(ctx, known)
	if swept > 0 {
		log.Printf("[Cron] 🧹 Swept %d expired sessions", swept)
	}
}
