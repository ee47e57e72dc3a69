package preview

import (
	"context"
	"time"
)

// Metadata is the best-effort description of a linked page. Title is the
// only field required to produce a preview.
type Metadata struct {
	Title       string
	Description string
	PublishedAt *time.Time
	Insecure    bool
}

// Extractor produces a preview line for URLs on domains it claims.
// An empty string with a nil error means "no preview" and is not an error
// condition; errors are logged by the dispatcher and degrade to no preview.
type Extractor interface {
	CanHandle(domain string) bool
	Extract(ctx context.Context, rawURL string) (string, error)
}
