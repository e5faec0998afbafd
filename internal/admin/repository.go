package admin

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// singletonID is the _id of the one admin config document.
const singletonID = "default"

// Repository persists the admin configuration.
type Repository interface {
	Get(ctx context.Context) (*Config, error)
	Put(ctx context.Context, c *Config) (*Config, error)
}

// MongoRepo implements Repository on the admin collection.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo creates a repository for the given collection
func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// Get returns the stored config, or nil when none has been written yet.
func (r *MongoRepo) Get(ctx context.Context) (*Config, error) {
	var c Config
	if err := r.col.FindOne(ctx, bson.M{"_id": singletonID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoRepo) Put(ctx context.Context, c *Config) (*Config, error) {
	set := bson.M{"$set": bson.M{
		"email_id":               c.EmailID,
		"industries":             c.Industries,
		"type_of_post":           c.TypeOfPost,
		"target_audience":        c.TargetAudience,
		"number_of_free_prompts": c.NumberOfFreePrompts,
		"updatedAt":              c.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated Config
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": singletonID}, set, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c, nil
		}
		return nil, err
	}
	return &updated, nil
}

// MemoryRepo keeps the config in process memory.
type MemoryRepo struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) Get(_ context.Context) (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg == nil {
		return nil, nil
	}
	return clone(m.cfg), nil
}

func (m *MemoryRepo) Put(_ context.Context, c *Config) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = clone(c)
	return clone(c), nil
}

func clone(c *Config) *Config {
	cp := *c
	cp.EmailID = append([]string{}, c.EmailID...)
	cp.Industries = append([]string{}, c.Industries...)
	cp.TypeOfPost = append([]string{}, c.TypeOfPost...)
	cp.TargetAudience = append([]string{}, c.TargetAudience...)
	return &cp
}
