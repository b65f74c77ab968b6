// internal/sms/service.go
package sms

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/bus"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

var ErrNoRecipients = errors.New("no recipients selected")

// API is the slice of the upstream client the service consumes.
type API interface {
	SendSMS(ctx context.Context, token string, phones []string, message string) (*upstream.SMSResult, error)
}

// Report summarizes one broadcast: what the gateway accepted plus the rows
// the console skipped because they opted out or carry no phone number.
type Report struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"`
}

// Service holds the SMS widget's current recipient set, fed by the selection
// the user list republishes.
type Service struct {
	api       API
	audit     repository.AuditRepository
	token     string
	managerID int64

	mu         sync.Mutex
	recipients []models.SMSRecipient

	unsub func()
}

func NewService(api API, audit repository.AuditRepository, b *bus.Bus, token string, managerID int64) *Service {
	s := &Service{api: api, audit: audit, token: token, managerID: managerID}
	if b != nil {
		s.unsub = b.SMSSelectedUsers.Subscribe(func(rs []models.SMSRecipient) {
			s.mu.Lock()
			s.recipients = rs
			s.mu.Unlock()
		})
	}
	return s
}

// Close detaches the service from its bus.
func (s *Service) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// Recipients returns the current recipient set.
func (s *Service) Recipients() []models.SMSRecipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SMSRecipient, len(s.recipients))
	copy(out, s.recipients)
	return out
}

// Broadcast sends message to every eligible recipient: opted in and with a
// phone number on file. Everyone else is counted as skipped, never sent.
func (s *Service) Broadcast(ctx context.Context, message string) (*Report, error) {
	s.mu.Lock()
	recipients := make([]models.SMSRecipient, len(s.recipients))
	copy(recipients, s.recipients)
	s.mu.Unlock()

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	var phones []string
	var targetIDs []int64
	skipped := 0
	for _, r := range recipients {
		if r.IsReceived != types.ReceiveYes || r.Phone == "" {
			skipped++
			continue
		}
		phones = append(phones, r.Phone)
		targetIDs = append(targetIDs, r.ID)
	}
	if len(phones) == 0 {
		return &Report{Skipped: skipped}, nil
	}

	res, err := s.api.SendSMS(ctx, s.token, phones, message)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		entry := &repository.AuditEntry{
			ActorID:   s.managerID,
			Action:    repository.ActionSMSBroadcast,
			TargetIDs: targetIDs,
			Reason:    message,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			log.Printf("[SMS] audit record failed: %v", err)
		}
	}

	return &Report{Accepted: res.Accepted, Rejected: res.Rejected, Skipped: skipped}, nil
}
