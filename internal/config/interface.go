package config

import "context"

// Loader is the interface for a format-specific workflow loader.
type Loader interface {
	// Extensions reports the file name suffixes this loader understands,
	// e.g. [".hcl"] or [".yml", ".yaml"].
	Extensions() []string

	// Load parses the given workflow files and translates them into the
	// format-agnostic model.
	Load(ctx context.Context, files ...string) (*Model, error)
}

// Merge combines several models into one. Workflow name collisions are the
// caller's responsibility to detect; Merge preserves file order.
func Merge(models ...*Model) *Model {
	out := &Model{}
	for _, m := range models {
		if m == nil {
			continue
		}
		out.Workflows = append(out.Workflows, m.Workflows...)
	}
	return out
}
