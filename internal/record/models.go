package record

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultRemaining is the quota given to a record created without one.
const DefaultRemaining = 100

// Record is a caller-identified, quota-tracked entry that owns its prompts.
// Key is the external identifier; ID is assigned by the store.
type Record struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Key       string             `json:"key" bson:"key"`
	Remaining int                `json:"remaining" bson:"remaining"`
	Prompts   []Prompt           `json:"prompts" bson:"prompts"`
}

// Prompt is embedded in Record.Prompts and has no lifecycle of its own.
type Prompt struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Tags     []string           `json:"tags" bson:"tags"`
	Heading  string             `json:"heading" bson:"heading"`
	BodyText string             `json:"bodyText" bson:"bodyText"`
	Industry string             `json:"industry,omitempty" bson:"industry,omitempty"`
}

// PromptInput carries the caller-supplied prompt fields. Industry is empty on
// the legacy append path.
type PromptInput struct {
	Tags     []string `json:"tags"`
	Heading  string   `json:"heading"`
	BodyText string   `json:"bodyText"`
	Industry string   `json:"industry,omitempty"`
}

// NewPrompt builds a prompt with a fresh identifier.
func NewPrompt(in PromptInput) Prompt {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return Prompt{
		ID:       primitive.NewObjectID(),
		Tags:     append([]string{}, tags...),
		Heading:  in.Heading,
		BodyText: in.BodyText,
		Industry: in.Industry,
	}
}

// Patch lists the fields a generic update may replace. Nil means unchanged.
type Patch struct {
	Remaining *int      `json:"remaining,omitempty"`
	Prompts   *[]Prompt `json:"prompts,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Remaining == nil && p.Prompts == nil
}

// NormalizedPrompts returns the replacement prompts with ids assigned where missing.
func (p Patch) NormalizedPrompts() []Prompt {
	if p.Prompts == nil {
		return nil
	}
	out := make([]Prompt, 0, len(*p.Prompts))
	for _, pr := range *p.Prompts {
		if pr.ID.IsZero() {
			pr.ID = primitive.NewObjectID()
		}
		if pr.Tags == nil {
			pr.Tags = []string{}
		}
		out = append(out, pr)
	}
	return out
}

// Removal is the outcome of a prompt removal. Removed is false when no prompt
// matched; Record is then the unchanged record.
type Removal struct {
	Record  *Record
	Removed bool
}

// IndustryCount is one group of the most-frequent-industry report.
type IndustryCount struct {
	Industry string `json:"_id" bson:"_id"`
	Count    int    `json:"count" bson:"count"`
}

// Snapshot describes an exported copy of the records collection.
type Snapshot struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"createdAt"`
}

// Normalize replaces nil slices so records always serialize prompts as [].
func (r *Record) Normalize() *Record {
	if r.Prompts == nil {
		r.Prompts = []Prompt{}
	}
	for i := range r.Prompts {
		if r.Prompts[i].Tags == nil {
			r.Prompts[i].Tags = []string{}
		}
	}
	return r
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Prompts = make([]Prompt, len(r.Prompts))
	for i, p := range r.Prompts {
		p.Tags = append([]string{}, p.Tags...)
		cp.Prompts[i] = p
	}
	return &cp
}
