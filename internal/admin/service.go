package admin

import (
	"context"
	"time"
)

// Service encapsulates admin configuration logic
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

// Get returns the current config; an empty config when none is stored.
func (s *Service) Get(ctx context.Context) (*Config, error) {
	c, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = &Config{}
	}
	return c.Normalize(), nil
}

// Put replaces the config with c after de-duplicating its lists.
func (s *Service) Put(ctx context.Context, c *Config) (*Config, error) {
	c.Normalize()
	c.UpdatedAt = s.now().UTC()
	out, err := s.repo.Put(ctx, c)
	if err != nil {
		return nil, err
	}
	return out.Normalize(), nil
}
