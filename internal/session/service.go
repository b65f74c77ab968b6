// internal/session/service.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/config"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

// Service owns console session lifecycle. Authentication itself is delegated
// to the upstream API; the console only caches the bearer token and profile
// and wraps them in its own short-lived JWT.
type Service struct {
	cfg   *config.Config
	up    *upstream.Client
	store Store

	// onTeardown is invoked whenever a session ends (logout or sweep) so the
	// owning workspace state can be dropped.
	onTeardown func(sessionID string)
}

func NewService(cfg *config.Config, up *upstream.Client, store Store) *Service {
	return &Service{cfg: cfg, up: up, store: store}
}

// OnTeardown registers the workspace teardown hook.
func (s *Service) OnTeardown(fn func(sessionID string)) {
	s.onTeardown = fn
}

func (s *Service) ttl() time.Duration {
	return time.Duration(s.cfg.SessionTTL) * time.Hour
}

// Login authenticates against the upstream, persists the session and returns
// the console JWT plus the cached profile.
func (s *Service) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	res, err := s.up.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	// an unknown upstream position gets the least-privileged role
	position := res.Position
	if !types.IsValidPosition(position) {
		position = types.PositionViewer
	}

	sess := &Session{
		ID:    uuid.NewString(),
		Token: res.Token,
		Profile: models.Profile{
			UserID:   res.UserID,
			RealName: res.RealName,
			Position: position,
		},
		CreatedAt: time.Now(),
	}
	if err := s.store.Save(ctx, sess, s.ttl()); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.signToken(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.AuthResponse{Profile: sess.Profile, AccessToken: token}, nil
}

// Logout deletes the session and tears down its workspace.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	if s.onTeardown != nil {
		s.onTeardown(sessionID)
	}
	return nil
}

// Resolve loads the session by id.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Find(ctx, sessionID)
}

// IsAuthenticated is the synchronous predicate route gating uses.
func (s *Service) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, err := s.store.Find(ctx, sessionID)
	return err == nil
}

// SweepExpired drops workspace state for sessions the store no longer knows.
// The store's TTL already removed the entries; this reclaims the in-memory
// side. liveIDs is consulted against the given known ids.
func (s *Service) SweepExpired(ctx context.Context, knownIDs []string) int {
	swept := 0
	for _, id := range knownIDs {
		if _, err := s.store.Find(ctx, id); err != nil {
			if s.onTeardown != nil {
				s.onTeardown(id)
			}
			swept++
		}
	}
	return swept
}

func (s *Service) signToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(s.ttl()).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and verifies a console JWT.
func (s *Service) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// GetSessionIDFromToken extracts the session id claim.
func (s *Service) GetSessionIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("missing session id claim")
	}
	return sid, nil
}
