package pageauth

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PageRules resolves which roles may open a given page path. Rules are either
// exact paths or prefix wildcards ending in "/*"; the most specific rule wins.
type PageRules interface {
	repository.Repository[*PageRule]

	FindForPath(ctx context.Context, path string) (*PageRule, error)
	FindForPathTx(ctx context.Context, tx bun.IDB, path string) (*PageRule, error)
}

type pageRules struct {
	repository.Repository[*PageRule]
	db *bun.DB
}

var _ PageRules = (*pageRules)(nil)

func NewPageRulesRepository(db *bun.DB) PageRules {
	repo := repository.NewRepository[*PageRule](db, repository.ModelHandlers[*PageRule]{
		NewRecord: func() *PageRule { return &PageRule{} },
		GetID: func(r *PageRule) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *PageRule, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "path"
		},
	})

	return &pageRules{
		Repository: repo,
		db:         db,
	}
}

func (r *pageRules) FindForPath(ctx context.Context, path string) (*PageRule, error) {
	return r.FindForPathTx(ctx, r.db, path)
}

func (r *pageRules) FindForPathTx(ctx context.Context, tx bun.IDB, path string) (*PageRule, error) {
	path = NormalizePagePath(path)

	record := &PageRule{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.path = ?", path).
		Limit(1).
		Scan(ctx)

	if err == nil {
		return record, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	wildcards := []*PageRule{}
	err = tx.NewSelect().
		Model(&wildcards).
		Where("?TableAlias.path LIKE ?", "%/*").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	if match := bestWildcardMatch(path, wildcards); match != nil {
		return match, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"path": path,
		})
}

// bestWildcardMatch picks the wildcard rule with the longest matching prefix.
func bestWildcardMatch(path string, rules []*PageRule) *PageRule {
	var best *PageRule
	bestLen := -1

	for _, rule := range rules {
		prefix, ok := wildcardPrefix(rule.Path)
		if !ok {
			continue
		}

		if path != prefix && !strings.HasPrefix(path, prefix+"/") {
			continue
		}

		if len(prefix) > bestLen {
			best = rule
			bestLen = len(prefix)
		}
	}

	return best
}

func wildcardPrefix(rulePath string) (string, bool) {
	if !strings.HasSuffix(rulePath, "/*") {
		return "", false
	}
	return strings.TrimSuffix(rulePath, "/*"), true
}

// NormalizePagePath lower cases the path, guarantees a leading slash, and
// strips any trailing slash so "/Admin/" and "/admin" address the same rule.
func NormalizePagePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(strings.ToLower(path))
	if path == "" {
		return "/"
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	return path
}
