package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/query"
)

// vocabularySize caps the number of buckets a terms aggregation returns.
const vocabularySize = 500

// Elastic reads records from Elasticsearch indices named prefix+table.
type Elastic struct {
	client *elasticsearch.Client
	prefix string
	tracer trace.Tracer
}

// NewElastic wraps an Elasticsearch client.
func NewElastic(client *elasticsearch.Client, indexPrefix string) *Elastic {
	if client == nil {
		return nil
	}
	return &Elastic{
		client: client,
		prefix: indexPrefix,
		tracer: otel.Tracer("insightdesk.internal.datasource.elastic"),
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Values struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"values"`
	} `json:"aggregations"`
}

// FetchCustomers implements Source.
func (e *Elastic) FetchCustomers(ctx context.Context, d query.Descriptor) ([]crm.Customer, error) {
	return searchHits(ctx, e, crm.EntityCustomers, d, func(c *crm.Customer) { c.Sanitize() })
}

// FetchConversations implements Source.
func (e *Elastic) FetchConversations(ctx context.Context, d query.Descriptor) ([]crm.Conversation, error) {
	return searchHits(ctx, e, crm.EntityConversations, d, func(c *crm.Conversation) { c.Sanitize() })
}

// FetchInsights implements Source.
func (e *Elastic) FetchInsights(ctx context.Context, d query.Descriptor) ([]crm.Insight, error) {
	return searchHits(ctx, e, crm.EntityInsights, d, func(in *crm.Insight) { in.Sanitize() })
}

// ListCategories implements Vocabulary with a terms aggregation.
func (e *Elastic) ListCategories(ctx context.Context) ([]crm.CategoryCount, error) {
	res, err := e.aggregate(ctx, "category")
	if err != nil {
		return nil, fetchErr(crm.EntityInsights, "list categories", err)
	}
	out := make([]crm.CategoryCount, 0, len(res.Aggregations.Values.Buckets))
	for _, b := range res.Aggregations.Values.Buckets {
		out = append(out, crm.CategoryCount{Category: crm.ParseCategory(b.Key), Count: b.DocCount})
	}
	return out, nil
}

// ListTopics implements Vocabulary with a terms aggregation.
func (e *Elastic) ListTopics(ctx context.Context) ([]crm.TopicCount, error) {
	res, err := e.aggregate(ctx, "topics")
	if err != nil {
		return nil, fetchErr(crm.EntityInsights, "list topics", err)
	}
	out := make([]crm.TopicCount, 0, len(res.Aggregations.Values.Buckets))
	for _, b := range res.Aggregations.Values.Buckets {
		out = append(out, crm.TopicCount{Topic: b.Key, Count: b.DocCount})
	}
	return out, nil
}

func (e *Elastic) aggregate(ctx context.Context, field string) (*searchResponse, error) {
	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"values": map[string]any{"terms": map[string]any{"field": field, "size": vocabularySize}},
		},
	}
	return e.search(ctx, "insights", body)
}

func searchHits[R any](ctx context.Context, e *Elastic, entity crm.Entity, d query.Descriptor, sanitize func(*R)) ([]R, error) {
	ctx, span := e.tracer.Start(ctx, "datasource.elastic.fetch",
		trace.WithAttributes(attribute.String("entity", string(entity))))
	defer span.End()

	body, err := query.Elastic(d)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("datasource: build %s search: %w", entity, err)
	}
	res, err := e.search(ctx, d.Table, body)
	if err != nil {
		span.RecordError(err)
		return nil, fetchErr(entity, "fetch", err)
	}
	out := make([]R, 0, len(res.Hits.Hits))
	for _, h := range res.Hits.Hits {
		var r R
		if err := json.Unmarshal(h.Source, &r); err != nil {
			span.RecordError(err)
			return nil, fetchErr(entity, "decode", err)
		}
		sanitize(&r)
		out = append(out, r)
	}
	return out, nil
}

// search runs one request. A missing index reads as an empty result.
func (e *Elastic) search(ctx context.Context, table string, body map[string]any) (*searchResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.prefix+table),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return &searchResponse{}, nil
	}
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("search %s: %s: %s", e.prefix+table, res.Status(), bytes.TrimSpace(msg))
	}
	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}
	return &out, nil
}
