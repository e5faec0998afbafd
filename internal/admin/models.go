package admin

import "time"

// Config is the singleton admin configuration stored on the admin connection.
type Config struct {
	EmailID             []string  `json:"email_id" bson:"email_id"`
	Industries          []string  `json:"industries" bson:"industries"`
	TypeOfPost          []string  `json:"type_of_post" bson:"type_of_post"`
	TargetAudience      []string  `json:"target_audience" bson:"target_audience"`
	NumberOfFreePrompts int       `json:"number_of_free_prompts" bson:"number_of_free_prompts"`
	UpdatedAt           time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Normalize de-duplicates every list, keeping first occurrences, and replaces
// nil lists with empty ones.
func (c *Config) Normalize() *Config {
	c.EmailID = dedupe(c.EmailID)
	c.Industries = dedupe(c.Industries)
	c.TypeOfPost = dedupe(c.TypeOfPost)
	c.TargetAudience = dedupe(c.TargetAudience)
	return c
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
