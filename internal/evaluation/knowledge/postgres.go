package knowledge

import (
	"context"
	"database/sql"
	"fmt"

	"evaluation-workers/internal/common/errors"

	"github.com/lib/pq"
)

// Postgres layout:
//
//	kb_domains  (id, name, position)
//	kb_criteria (id, domain_id, key, name, keywords text[], recommendation, example, position)
const loadCriteriaQuery = `
SELECT d.id, d.name, c.key, c.name, c.keywords, c.recommendation, c.example
FROM kb_domains d
LEFT JOIN kb_criteria c ON c.domain_id = d.id
ORDER BY d.position, d.id, c.position, c.id`

const loadVersionQuery = `SELECT COALESCE(MAX(version), '') FROM kb_versions`

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// LoadFromPostgres builds a knowledge base from the kb_* tables. Domains keep
// their position order even when they have no criteria yet.
func LoadFromPostgres(ctx context.Context, db Querier) (*KnowledgeBase, error) {
	var version string
	if err := db.QueryRowContext(ctx, loadVersionQuery).Scan(&version); err != nil {
		return nil, errors.NewKnowledgeBaseLoadFailedError("postgres", fmt.Errorf("read version: %w", err))
	}

	rows, err := db.QueryContext(ctx, loadCriteriaQuery)
	if err != nil {
		return nil, errors.NewKnowledgeBaseLoadFailedError("postgres", err)
	}
	defer rows.Close()

	var (
		domains  []Domain
		lastID   int64
		haveLast bool
	)

	for rows.Next() {
		var (
			domainID       int64
			domainName     string
			key, name      sql.NullString
			keywords       pq.StringArray
			recommendation sql.NullString
			example        sql.NullString
		)
		if err := rows.Scan(&domainID, &domainName, &key, &name, &keywords, &recommendation, &example); err != nil {
			return nil, errors.NewKnowledgeBaseLoadFailedError("postgres", fmt.Errorf("scan: %w", err))
		}

		if !haveLast || domainID != lastID {
			domains = append(domains, Domain{Name: domainName})
			lastID, haveLast = domainID, true
		}

		if !name.Valid {
			continue // domain without criteria
		}

		d := &domains[len(domains)-1]
		d.Criteria = append(d.Criteria, Criterion{
			Key:            key.String,
			Name:           name.String,
			Keywords:       []string(keywords),
			Recommendation: recommendation.String,
			Example:        example.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewKnowledgeBaseLoadFailedError("postgres", err)
	}

	return New(version, domains)
}
