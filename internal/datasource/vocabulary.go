package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/wolfman30/insightdesk/internal/crm"
)

const (
	categoriesQuery = `SELECT category, COUNT(*) FROM insights
		WHERE category IS NOT NULL AND category <> ''
		GROUP BY category ORDER BY COUNT(*) DESC, category`

	topicsQuery = `SELECT topic, COUNT(*) FROM insights, unnest(topics) AS topic
		WHERE topic <> ''
		GROUP BY topic ORDER BY COUNT(*) DESC, topic`
)

// undefinedTable is the PostgreSQL error code for a missing relation.
const undefinedTable = "42P01"

// SQLVocabulary lists categories and topics with grouped counts over a
// database/sql connection using the lib/pq driver.
type SQLVocabulary struct {
	db *sql.DB
}

// NewSQLVocabulary wraps db. A nil db yields nil.
func NewSQLVocabulary(db *sql.DB) *SQLVocabulary {
	if db == nil {
		return nil
	}
	return &SQLVocabulary{db: db}
}

// ListCategories implements Vocabulary.
func (v *SQLVocabulary) ListCategories(ctx context.Context) ([]crm.CategoryCount, error) {
	out := []crm.CategoryCount{}
	err := v.grouped(ctx, categoriesQuery, func(value string, count int) {
		out = append(out, crm.CategoryCount{Category: crm.ParseCategory(value), Count: count})
	})
	if err != nil {
		return nil, fetchErr(crm.EntityInsights, "list categories", err)
	}
	return out, nil
}

// ListTopics implements Vocabulary.
func (v *SQLVocabulary) ListTopics(ctx context.Context) ([]crm.TopicCount, error) {
	out := []crm.TopicCount{}
	err := v.grouped(ctx, topicsQuery, func(value string, count int) {
		out = append(out, crm.TopicCount{Topic: value, Count: count})
	})
	if err != nil {
		return nil, fetchErr(crm.EntityInsights, "list topics", err)
	}
	return out, nil
}

// grouped runs a value/count query. A store without the insights table is
// treated as empty.
func (v *SQLVocabulary) grouped(ctx context.Context, q string, add func(string, int)) error {
	if v == nil || v.db == nil {
		return nil
	}
	rows, err := v.db.QueryContext(ctx, q)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
			return nil
		}
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			value string
			count int
		)
		if err := rows.Scan(&value, &count); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		add(value, count)
	}
	return rows.Err()
}
