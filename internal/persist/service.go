package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/timeline/internal/model"
)

// Accessor resolves the database a Service works against.
type Accessor func(ctx context.Context) (*DB, error)

// SharedAccessor resolves the process-wide connection for path.
func SharedAccessor(path string) Accessor {
	return func(ctx context.Context) (*DB, error) {
		return Shared(ctx, path)
	}
}

// StaticAccessor always resolves to db.
func StaticAccessor(db *DB) Accessor {
	return func(context.Context) (*DB, error) {
		return db, nil
	}
}

// Service is the session persistence surface used by the rest of the
// application. When storage cannot be reached, reads behave as if no
// session exists and writes fail with ErrUnavailable; nothing panics.
type Service struct {
	access Accessor
	logger *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for degraded-storage warnings.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService returns a Service over access.
func NewService(access Accessor, opts ...ServiceOption) *Service {
	s := &Service{access: access, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) db(ctx context.Context) (*DB, error) {
	db, err := s.access(ctx)
	if err != nil {
		s.logger.Warn("session storage unavailable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return db, nil
}

// Available reports whether storage can be reached.
func (s *Service) Available(ctx context.Context) bool {
	_, err := s.access(ctx)
	return err == nil
}

// Save writes the session record.
func (s *Service) Save(ctx context.Context, sess model.Session) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	return db.Save(ctx, sess)
}

// Load reads the full session record. Unavailable storage reads as absent.
func (s *Service) Load(ctx context.Context, id string) (model.Session, error) {
	db, err := s.db(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("load session %s: %v: %w", id, err, ErrNotFound)
	}
	return db.Load(ctx, id)
}

// GetMetadata reads the session summary. Unavailable storage reads as absent.
func (s *Service) GetMetadata(ctx context.Context, id string) (model.SessionMetadata, error) {
	db, err := s.db(ctx)
	if err != nil {
		return model.SessionMetadata{}, fmt.Errorf("session %s metadata: %v: %w", id, err, ErrNotFound)
	}
	return db.GetMetadata(ctx, id)
}

// Delete removes the session record.
func (s *Service) Delete(ctx context.Context, id string) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	return db.Delete(ctx, id)
}

// List returns summaries of stored sessions, most recent first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	return db.List(ctx)
}

// SaveSetting stores a user preference.
func (s *Service) SaveSetting(ctx context.Context, key, value string) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	return db.SaveSetting(ctx, key, value)
}

// LoadSetting reads a user preference. Unavailable storage reads as unset.
func (s *Service) LoadSetting(ctx context.Context, key string) (string, bool, error) {
	db, err := s.db(ctx)
	if err != nil {
		return "", false, nil
	}
	return db.LoadSetting(ctx, key)
}
