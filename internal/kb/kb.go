// Package kb provides knowledge base lookups that back drafted replies with
// reference excerpts.
package kb

import (
	"cmp"
	"context"
	"errors"
	"slices"
)

// ErrInvalidArticle is returned when an article is missing required fields.
var ErrInvalidArticle = errors.New("invalid knowledge base article")

// Result is one ranked reference excerpt.
type Result struct {
	Reference      string  `json:"reference"`
	RelevanceScore float64 `json:"relevance_score"`
	Excerpt        string  `json:"excerpt"`
}

// Query carries the classification fields a lookup ranks against.
type Query struct {
	Intent  string
	Summary string
}

// Searcher returns results ordered by descending relevance. An index with
// nothing to offer returns an empty slice, not an error.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Empty is the Searcher used when no index is configured.
type Empty struct{}

// Search always returns an empty slice.
func (Empty) Search(context.Context, Query) ([]Result, error) {
	return []Result{}, nil
}

// Static serves a fixed result set regardless of the query.
type Static struct {
	results []Result
}

// NewStatic returns a Static searcher over results, sorted by descending
// relevance.
func NewStatic(results ...Result) *Static {
	sorted := slices.Clone(results)
	Rank(sorted)
	return &Static{results: sorted}
}

// DefaultArticles is the built-in reference set used by the static source.
func DefaultArticles() []Result {
	return []Result{
		{
			Reference:      "kb/article1.txt",
			RelevanceScore: 0.95,
			Excerpt:        "This article explains how to reset your password.",
		},
		{
			Reference:      "kb/article2.txt",
			RelevanceScore: 0.90,
			Excerpt:        "This article provides troubleshooting steps for login issues.",
		},
	}
}

// Search returns a copy of the configured results.
func (s *Static) Search(ctx context.Context, q Query) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.results) == 0 {
		return []Result{}, nil
	}
	return slices.Clone(s.results), nil
}

// Rank sorts results by descending relevance, breaking ties by reference.
func Rank(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.RelevanceScore, a.RelevanceScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Reference, b.Reference)
	})
}
