package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/promptkeeper/promptkeeper/internal/record"
	"github.com/promptkeeper/promptkeeper/internal/record/repository"
	"github.com/promptkeeper/promptkeeper/pkg/logger"
	"github.com/promptkeeper/promptkeeper/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = repository.ErrNotFound
	ErrDuplicateKey    = repository.ErrDuplicateKey
	ErrStorageDisabled = errors.New("object storage not configured")
)

// Service defines the record operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, key string, remaining *int) (*record.Record, error)
	List(ctx context.Context) ([]record.Record, error)
	Get(ctx context.Context, key string) (*record.Record, error)
	Update(ctx context.Context, key string, patch record.Patch) (*record.Record, error)
	Delete(ctx context.Context, key string) error
	AppendPrompt(ctx context.Context, key string, in record.PromptInput) (*record.Record, error)
	RemovePrompt(ctx context.Context, key, promptID string) (*record.Removal, error)
	Prompts(ctx context.Context, key string) ([]record.Prompt, error)
	MostFrequentIndustry(ctx context.Context) (*record.IndustryCount, error)
	ExportSnapshot(ctx context.Context) (*record.Snapshot, error)
}

// ReportCache caches the most-frequent-industry report between prompt writes.
// A fill carries the generation read before the store query and is dropped
// when an invalidation happened in between.
type ReportCache interface {
	Generation(ctx context.Context) (int64, error)
	TopIndustry(ctx context.Context) (*record.IndustryCount, bool, error)
	StoreTopIndustry(ctx context.Context, top *record.IndustryCount, gen int64, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context) error
}

// ObjectStore receives record snapshots.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

type Option func(*recordService)

// WithReportCache enables caching of the industry report for ttl.
func WithReportCache(c ReportCache, ttl time.Duration) Option {
	return func(s *recordService) {
		s.cache = c
		s.reportTTL = ttl
	}
}

// WithObjectStore enables snapshot export; links stay valid for urlExpiry.
func WithObjectStore(o ObjectStore, urlExpiry time.Duration) Option {
	return func(s *recordService) {
		s.objects = o
		s.urlExpiry = urlExpiry
	}
}

// NewService returns a Service over the given repository.
func NewService(repo repository.Repository, opts ...Option) Service {
	s := &recordService{repo: repo, reportTTL: time.Minute, urlExpiry: 15 * time.Minute, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...Option) Service {
	return NewService(repository.NewMemoryRepo(), opts...)
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection, opts ...Option) Service {
	return NewService(repository.NewMongoRepo(col), opts...)
}

type recordService struct {
	repo      repository.Repository
	cache     ReportCache
	reportTTL time.Duration
	objects   ObjectStore
	urlExpiry time.Duration
	now       func() time.Time
}

func (s *recordService) Create(ctx context.Context, key string, remaining *int) (*record.Record, error) {
	n := record.DefaultRemaining
	if remaining != nil {
		n = *remaining
	}
	start := time.Now()
	rec, err := s.repo.Create(ctx, key, n)
	observe("create", start, err)
	return rec, err
}

func (s *recordService) List(ctx context.Context) ([]record.Record, error) {
	start := time.Now()
	list, err := s.repo.List(ctx)
	observe("list", start, err)
	return list, err
}

func (s *recordService) Get(ctx context.Context, key string) (*record.Record, error) {
	start := time.Now()
	rec, err := s.repo.Get(ctx, key)
	observe("get", start, err)
	return rec, err
}

func (s *recordService) Update(ctx context.Context, key string, patch record.Patch) (*record.Record, error) {
	start := time.Now()
	rec, err := s.repo.Update(ctx, key, patch)
	observe("update", start, err)
	if err == nil && patch.Prompts != nil {
		s.invalidate(ctx)
	}
	return rec, err
}

func (s *recordService) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.repo.Delete(ctx, key)
	observe("delete", start, err)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *recordService) AppendPrompt(ctx context.Context, key string, in record.PromptInput) (*record.Record, error) {
	start := time.Now()
	rec, err := s.repo.AppendPrompt(ctx, key, in)
	observe("append_prompt", start, err)
	if err == nil {
		s.invalidate(ctx)
	}
	return rec, err
}

func (s *recordService) RemovePrompt(ctx context.Context, key, promptID string) (*record.Removal, error) {
	start := time.Now()
	res, err := s.repo.RemovePrompt(ctx, key, promptID)
	observe("remove_prompt", start, err)
	if err == nil && res.Removed {
		s.invalidate(ctx)
	}
	return res, err
}

func (s *recordService) Prompts(ctx context.Context, key string) ([]record.Prompt, error) {
	start := time.Now()
	ps, err := s.repo.Prompts(ctx, key)
	observe("get_prompts", start, err)
	return ps, err
}

func (s *recordService) MostFrequentIndustry(ctx context.Context) (*record.IndustryCount, error) {
	useCache := s.cache != nil
	var gen int64
	if useCache {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			metrics.ReportCacheLookups.WithLabelValues("error").Inc()
			logger.Warnf("industry report cache read failed: %v", err)
			useCache = false
		}
	}
	if useCache {
		top, hit, err := s.cache.TopIndustry(ctx)
		switch {
		case err != nil:
			metrics.ReportCacheLookups.WithLabelValues("error").Inc()
			logger.Warnf("industry report cache read failed: %v", err)
			useCache = false
		case hit:
			metrics.ReportCacheLookups.WithLabelValues("hit").Inc()
			return top, nil
		default:
			metrics.ReportCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	top, err := s.repo.MostFrequentIndustry(ctx)
	observe("industry_report", start, err)
	if err != nil {
		return nil, err
	}
	if useCache {
		stored, cerr := s.cache.StoreTopIndustry(ctx, top, gen, s.reportTTL)
		switch {
		case cerr != nil:
			logger.Warnf("industry report cache write failed: %v", cerr)
		case !stored:
			logger.Debugf("industry report changed during computation; not cached")
		}
	}
	return top, nil
}

// ExportSnapshot serializes every record to JSON, uploads it to object storage
// and returns a presigned link to the upload.
func (s *recordService) ExportSnapshot(ctx context.Context) (*record.Snapshot, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	createdAt := s.now().UTC()
	key := "snapshots/records-" + createdAt.Format("20060102T150405.000000000Z") + ".json"
	if err := s.objects.UploadFile(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	link, err := s.objects.GetPresignedURL(ctx, key, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign snapshot: %w", err)
	}
	logger.Infof("exported %d records to %s", len(list), key)
	return &record.Snapshot{Key: key, URL: link, Records: len(list), CreatedAt: createdAt}, nil
}

func (s *recordService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warnf("industry report cache invalidation failed: %v", err)
	}
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	metrics.ObserveStoreOp(op, status, start)
}
