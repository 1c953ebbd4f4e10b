package extract

import "context"

// Resolver resolves the ticker symbols mentioned in text against an
// authoritative source. Implementations may be network-bound; the extractor
// treats any failure as a soft miss and falls back to regex matching.
type Resolver interface {
	Resolve(ctx context.Context, text string) ([]string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, text string) ([]string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}
