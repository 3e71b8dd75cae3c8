package kb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"

	"github.com/kcvinod/triage/pkg/lifecycle"
	"github.com/kcvinod/triage/pkg/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	reference TEXT PRIMARY KEY,
	intent    TEXT NOT NULL DEFAULT '',
	keywords  TEXT NOT NULL DEFAULT '',
	excerpt   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_intent ON articles(intent);`

const (
	intentWeight = 0.5
	termWeight   = 0.5
)

// Article is an indexed knowledge base entry.
type Article struct {
	Reference string `json:"reference"`
	Intent    string `json:"intent"`
	Keywords  string `json:"keywords"`
	Excerpt   string `json:"excerpt"`
}

// SQLite is a Searcher over an article table in a local SQLite database.
type SQLite struct {
	db     *sql.DB
	limit  int
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the article index at path. Search
// returns at most limit results.
func OpenSQLite(path string, limit int, logger *slog.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create kb dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open kb sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set kb sqlite wal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate kb sqlite: %w", err)
	}

	if limit <= 0 {
		limit = 5
	}

	return &SQLite{
		db:     db,
		limit:  limit,
		logger: logger.With("system", "kb"),
	}, nil
}

// Start registers a shutdown hook that closes the database.
func (s *SQLite) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.Close(); err != nil {
			s.logger.Error("kb close failed", "error", err)
			return
		}
		s.logger.Info("kb closed")
	})
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Add inserts or replaces an article.
func (s *SQLite) Add(ctx context.Context, a Article) error {
	if strings.TrimSpace(a.Reference) == "" {
		return fmt.Errorf("%w: reference required", ErrInvalidArticle)
	}
	if strings.TrimSpace(a.Excerpt) == "" {
		return fmt.Errorf("%w: excerpt required", ErrInvalidArticle)
	}

	const q = `
		INSERT INTO articles (reference, intent, keywords, excerpt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(reference) DO UPDATE SET
			intent = excluded.intent,
			keywords = excluded.keywords,
			excerpt = excluded.excerpt`

	_, err := s.db.ExecContext(ctx, q,
		a.Reference,
		strings.ToLower(strings.TrimSpace(a.Intent)),
		a.Keywords,
		a.Excerpt,
	)
	if err != nil {
		return fmt.Errorf("add article %s: %w", a.Reference, err)
	}
	return nil
}

// Search scores every article against q: a matching intent contributes half
// of the score and the share of summary terms found in the article's
// keywords and excerpt contributes the other half. Articles scoring zero are
// omitted.
func (s *SQLite) Search(ctx context.Context, q Query) ([]Result, error) {
	const query = `SELECT reference, intent, keywords, excerpt FROM articles`

	articles, err := repository.QueryMany(ctx, s.db, query, nil, scanArticle)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	intent := strings.ToLower(strings.TrimSpace(q.Intent))
	terms := tokenize(q.Summary)

	results := make([]Result, 0, len(articles))
	for _, a := range articles {
		score := 0.0
		if intent != "" && a.Intent == intent {
			score += intentWeight
		}
		score += termWeight * overlap(terms, tokenize(a.Keywords+" "+a.Excerpt))

		if score > 0 {
			results = append(results, Result{
				Reference:      a.Reference,
				RelevanceScore: score,
				Excerpt:        a.Excerpt,
			})
		}
	}

	Rank(results)
	if len(results) > s.limit {
		results = results[:s.limit]
	}
	return results, nil
}

func scanArticle(sc repository.Scanner) (Article, error) {
	var a Article
	err := sc.Scan(&a.Reference, &a.Intent, &a.Keywords, &a.Excerpt)
	return a, err
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			set[f] = struct{}{}
		}
	}
	return set
}

func overlap(terms, doc map[string]struct{}) float64 {
	if len(terms) == 0 {
		return 0
	}

	hits := 0
	for t := range terms {
		if _, ok := doc[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
