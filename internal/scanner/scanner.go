package scanner

import (
	"context"
	"fmt"
	"sort"

	"NewsRecommender/internal/domain"
)

// Request carries all parameters required to read one configured source.
type Request struct {
	SourceName string
	URL        string
	APIKey     string
	// Category is assigned to items the upstream does not categorize.
	Category string
	Options  map[string]string
}

// CategoryOr returns the configured category or the given default.
func (r Request) CategoryOr(def string) string {
	if r.Category != "" {
		return domain.NormalizeCategory(r.Category)
	}
	return def
}

// Scanner captures a single source strategy (NewsAPI, GNews, RSS, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry keeps a mapping from source kinds to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists the registered kinds in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
