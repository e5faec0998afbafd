package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptkeeper/promptkeeper/internal/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection. Records are looked
// up by their "key" field, never by _id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the unique index on "key" that backs ErrDuplicateKey.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := m.col.Indexes().CreateOne(ctx, idxModel); err != nil {
		return fmt.Errorf("create key index: %w", err)
	}
	return nil
}

func (m *MongoRepo) Create(ctx context.Context, key string, remaining int) (*record.Record, error) {
	rec := &record.Record{
		ID:        primitive.NewObjectID(),
		Key:       key,
		Remaining: remaining,
		Prompts:   []record.Prompt{},
	}
	if _, err := m.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %q: %v", ErrDuplicateKey, key, err)
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]record.Record, error) {
	cur, err := m.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer cur.Close(ctx)
	out := []record.Record{}
	for cur.Next(ctx) {
		var r record.Record
		if err := cur.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, *r.Normalize())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, key string) (*record.Record, error) {
	var r record.Record
	if err := m.col.FindOne(ctx, bson.M{"key": key}).Decode(&r); err != nil {
		return nil, notFoundOr(err, "find record")
	}
	return r.Normalize(), nil
}

func (m *MongoRepo) Update(ctx context.Context, key string, patch record.Patch) (*record.Record, error) {
	if patch.Empty() {
		return m.Get(ctx, key)
	}
	set := bson.M{}
	if patch.Remaining != nil {
		set["remaining"] = *patch.Remaining
	}
	if patch.Prompts != nil {
		set["prompts"] = patch.NormalizedPrompts()
	}
	return m.findAndModify(ctx, bson.M{"key": key}, bson.M{"$set": set}, "update record")
}

func (m *MongoRepo) Delete(ctx context.Context, key string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) AppendPrompt(ctx context.Context, key string, in record.PromptInput) (*record.Record, error) {
	p := record.NewPrompt(in)
	return m.findAndModify(ctx, bson.M{"key": key}, bson.M{"$push": bson.M{"prompts": p}}, "append prompt")
}

// RemovePrompt pulls the prompt only when the record actually holds it, so a
// miss can be told apart from a removal. On a miss the record is re-read to
// distinguish "no such prompt" from "no such record".
func (m *MongoRepo) RemovePrompt(ctx context.Context, key string, promptID string) (*record.Removal, error) {
	if oid, err := primitive.ObjectIDFromHex(promptID); err == nil {
		filter := bson.M{"key": key, "prompts._id": oid}
		update := bson.M{"$pull": bson.M{"prompts": bson.M{"_id": oid}}}
		rec, err := m.findAndModify(ctx, filter, update, "remove prompt")
		if err == nil {
			return &record.Removal{Record: rec, Removed: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	rec, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return &record.Removal{Record: rec, Removed: false}, nil
}

func (m *MongoRepo) Prompts(ctx context.Context, key string) ([]record.Prompt, error) {
	var out struct {
		Prompts []record.Prompt `bson:"prompts"`
	}
	opts := options.FindOne().SetProjection(bson.M{"prompts": 1, "_id": 0})
	if err := m.col.FindOne(ctx, bson.M{"key": key}, opts).Decode(&out); err != nil {
		return nil, notFoundOr(err, "find prompts")
	}
	r := record.Record{Prompts: out.Prompts}
	return r.Normalize().Prompts, nil
}

// MostFrequentIndustry flattens prompts across all records, counts them per
// industry and keeps the top group. Ties go to the smallest industry name.
func (m *MongoRepo) MostFrequentIndustry(ctx context.Context) (*record.IndustryCount, error) {
	cur, err := m.col.Aggregate(ctx, IndustryPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate industries: %w", err)
	}
	defer cur.Close(ctx)
	var groups []record.IndustryCount
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode industries: %w", err)
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return &groups[0], nil
}

// IndustryPipeline is the report pipeline: unwind, drop unclassified prompts,
// group-and-count, sort by count desc then name asc, limit 1.
func IndustryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$prompts"}},
		{{Key: "$match", Value: bson.D{{Key: "prompts.industry", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$prompts.industry"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: 1}},
	}
}

func (m *MongoRepo) findAndModify(ctx context.Context, filter, update interface{}, op string) (*record.Record, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r record.Record
	if err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&r); err != nil {
		return nil, notFoundOr(err, op)
	}
	return r.Normalize(), nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
