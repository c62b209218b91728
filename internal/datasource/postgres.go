package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/query"
)

// pgQuerier is the subset of pgxpool.Pool the source needs.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var customerColumns = []string{
	"id", "name", "COALESCE(industry, '')", "COALESCE(size, '')", "COALESCE(status, '')",
	"COALESCE(tier, '')", "COALESCE(health, '')", "health_score", "revenue",
	"COALESCE(location::text, '')", "COALESCE(contact_person, '')", "COALESCE(email, '')",
	"COALESCE(phone, '')", "COALESCE(website, '')", "COALESCE(tags, '{}')", "last_activity_at", "created_at",
}

var conversationColumns = []string{
	"id", "COALESCE(customer_id, '')", "COALESCE(type, '')", "COALESCE(direction, '')", "occurred_at",
	"duration_minutes", "COALESCE(subject, '')", "COALESCE(summary, '')", "COALESCE(participants, '[]')::text",
	"COALESCE(status, '')", "COALESCE(sentiment, '')", "sentiment_score", "COALESCE(priority, '')",
	"COALESCE(tags, '{}')", "created_at",
}

var insightColumns = []string{
	"id", "COALESCE(conversation_id, '')", "COALESCE(customer_id, '')", "COALESCE(category, '')",
	"COALESCE(subcategory, '')", "COALESCE(text, '')", "COALESCE(topics, '{}')", "confidence_score",
	"urgency_score", "sentiment_score", "potential_revenue", "COALESCE(risk_level, '')", "created_at",
}

// Postgres reads records from PostgreSQL through a pgx pool. Vocabulary
// listings are delegated to a database/sql backed SQLVocabulary.
type Postgres struct {
	db     pgQuerier
	vocab  Vocabulary
	tracer trace.Tracer
}

// NewPostgres creates a source over a pgx pool.
func NewPostgres(pool *pgxpool.Pool, vocab Vocabulary) *Postgres {
	if pool == nil {
		panic("datasource: pgx pool required")
	}
	return NewPostgresWithDB(pool, vocab)
}

// NewPostgresWithDB allows injecting a mock database for testing.
func NewPostgresWithDB(db pgQuerier, vocab Vocabulary) *Postgres {
	return &Postgres{
		db:     db,
		vocab:  vocab,
		tracer: otel.Tracer("insightdesk.internal.datasource.postgres"),
	}
}

// FetchCustomers implements Source.
func (p *Postgres) FetchCustomers(ctx context.Context, d query.Descriptor) ([]crm.Customer, error) {
	out := []crm.Customer{}
	err := p.query(ctx, crm.EntityCustomers, d, customerColumns, func(rows pgx.Rows) error {
		var (
			c                     crm.Customer
			healthScore, revenue  pgtype.Float8
			location              string
			lastActivity, created pgtype.Timestamptz
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.Size, &c.Status, &c.Tier, &c.Health,
			&healthScore, &revenue, &location, &c.ContactPerson, &c.Email, &c.Phone, &c.Website,
			&c.Tags, &lastActivity, &created); err != nil {
			return err
		}
		c.HealthScore = float8(healthScore)
		c.Revenue = float8(revenue)
		c.Location = parseLocation(location)
		c.LastActivity = timestamptz(lastActivity)
		c.CreatedAt = timestamptz(created)
		c.Sanitize()
		out = append(out, c)
		return nil
	})
	return out, err
}

// FetchConversations implements Source.
func (p *Postgres) FetchConversations(ctx context.Context, d query.Descriptor) ([]crm.Conversation, error) {
	out := []crm.Conversation{}
	err := p.query(ctx, crm.EntityConversations, d, conversationColumns, func(rows pgx.Rows) error {
		var (
			c                 crm.Conversation
			occurred, created pgtype.Timestamptz
			duration          pgtype.Int4
			participants      string
			score             pgtype.Float8
		)
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Type, &c.Direction, &occurred, &duration,
			&c.Subject, &c.Summary, &participants, &c.Status, &c.Sentiment, &score, &c.Priority,
			&c.Tags, &created); err != nil {
			return err
		}
		c.OccurredAt = timestamptz(occurred)
		c.CreatedAt = timestamptz(created)
		if duration.Valid {
			v := int(duration.Int32)
			c.DurationMinutes = &v
		}
		c.SentimentScore = float8(score)
		// Malformed participant lists degrade to none.
		_ = json.Unmarshal([]byte(participants), &c.Participants)
		c.Sanitize()
		out = append(out, c)
		return nil
	})
	return out, err
}

// FetchInsights implements Source.
func (p *Postgres) FetchInsights(ctx context.Context, d query.Descriptor) ([]crm.Insight, error) {
	out := []crm.Insight{}
	err := p.query(ctx, crm.EntityInsights, d, insightColumns, func(rows pgx.Rows) error {
		var (
			in                                  crm.Insight
			category                            string
			confidence, urgency, sentiment, rev pgtype.Float8
			created                             pgtype.Timestamptz
		)
		if err := rows.Scan(&in.ID, &in.ConversationID, &in.CustomerID, &category, &in.Subcategory,
			&in.Text, &in.Topics, &confidence, &urgency, &sentiment, &rev, &in.RiskLevel, &created); err != nil {
			return err
		}
		in.Category = crm.ParseCategory(category)
		in.ConfidenceScore = float8(confidence)
		in.UrgencyScore = float8(urgency)
		in.SentimentScore = float8(sentiment)
		in.PotentialRevenue = float8(rev)
		in.CreatedAt = timestamptz(created)
		in.Sanitize()
		out = append(out, in)
		return nil
	})
	return out, err
}

// ListCategories implements Vocabulary.
func (p *Postgres) ListCategories(ctx context.Context) ([]crm.CategoryCount, error) {
	if p.vocab == nil {
		return []crm.CategoryCount{}, nil
	}
	return p.vocab.ListCategories(ctx)
}

// ListTopics implements Vocabulary.
func (p *Postgres) ListTopics(ctx context.Context) ([]crm.TopicCount, error) {
	if p.vocab == nil {
		return []crm.TopicCount{}, nil
	}
	return p.vocab.ListTopics(ctx)
}

func (p *Postgres) query(ctx context.Context, entity crm.Entity, d query.Descriptor, columns []string, scan func(pgx.Rows) error) error {
	ctx, span := p.tracer.Start(ctx, "datasource.postgres.fetch",
		trace.WithAttributes(attribute.String("entity", string(entity))))
	defer span.End()

	stmt, err := query.SQL(d, columns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("datasource: build %s query: %w", entity, err)
	}
	rows, err := p.db.Query(ctx, stmt.SQL, stmt.Args...)
	if isUndefinedTable(err) {
		span.SetAttributes(attribute.Bool("missing_table", true))
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fetchErr(entity, "fetch", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			span.RecordError(err)
			return fetchErr(entity, "scan", err)
		}
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return fetchErr(entity, "fetch", err)
	}
	return nil
}

// isUndefinedTable reports a missing relation, which reads as no rows.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

func float8(v pgtype.Float8) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timestamptz(v pgtype.Timestamptz) crm.Date {
	if !v.Valid {
		return crm.Date{}
	}
	return crm.DateOf(v.Time)
}

// parseLocation accepts a JSON object or plain text.
func parseLocation(s string) crm.Location {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var loc crm.Location
		if err := json.Unmarshal([]byte(s), &loc); err == nil {
			return loc
		}
	}
	return crm.Location{Text: s}
}
