package repository

import (
	"context"
	"errors"

	"github.com/promptkeeper/promptkeeper/internal/record"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Repository is the typed access layer over the records collection plus the
// industry report. Every call is a single, non-transactional store operation
// (RemovePrompt adds a read when nothing matched).
type Repository interface {
	Create(ctx context.Context, key string, remaining int) (*record.Record, error)
	List(ctx context.Context) ([]record.Record, error)
	Get(ctx context.Context, key string) (*record.Record, error)
	Update(ctx context.Context, key string, patch record.Patch) (*record.Record, error)
	Delete(ctx context.Context, key string) error

	AppendPrompt(ctx context.Context, key string, in record.PromptInput) (*record.Record, error)
	RemovePrompt(ctx context.Context, key string, promptID string) (*record.Removal, error)
	Prompts(ctx context.Context, key string) ([]record.Prompt, error)

	// MostFrequentIndustry returns nil when no prompt carries an industry.
	MostFrequentIndustry(ctx context.Context) (*record.IndustryCount, error)
}
