package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	last   *Config
	getErr error
}

func (f *fakeRepo) Get(context.Context) (*Config, error) {
	return f.last, f.getErr
}

func (f *fakeRepo) Put(_ context.Context, c *Config) (*Config, error) {
	f.last = c
	return c, nil
}

func TestGetWithoutStoredConfig(t *testing.T) {
	svc := NewService(&fakeRepo{})
	c, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{}, c.EmailID)
	require.Equal(t, []string{}, c.Industries)
	require.Equal(t, []string{}, c.TypeOfPost)
	require.Equal(t, []string{}, c.TargetAudience)
	require.Zero(t, c.NumberOfFreePrompts)
}

func TestPutDeduplicatesLists(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	out, err := svc.Put(context.Background(), &Config{
		EmailID:        []string{"ops@example.com", "ops@example.com", "billing@example.com"},
		Industries:     []string{"retail", "finance", "retail"},
		TypeOfPost:     []string{"blog", "blog"},
		TargetAudience: nil,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ops@example.com", "billing@example.com"}, out.EmailID)
	require.Equal(t, []string{"retail", "finance"}, out.Industries)
	require.Equal(t, []string{"blog"}, out.TypeOfPost)
	require.Equal(t, []string{}, out.TargetAudience)
	require.Equal(t, []string{"retail", "finance"}, repo.last.Industries)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), repo.last.UpdatedAt)
}

func TestGetPropagatesErrors(t *testing.T) {
	svc := NewService(&fakeRepo{getErr: errors.New("boom")})
	_, err := svc.Get(context.Background())
	require.EqualError(t, err, "boom")
}
