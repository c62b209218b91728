package datasource

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wolfman30/insightdesk/internal/crm"
	"github.com/wolfman30/insightdesk/internal/query"
	"github.com/wolfman30/insightdesk/internal/stats"
)

// Dataset is the on-disk fixture format.
type Dataset struct {
	Customers     []crm.Customer     `yaml:"customers"`
	Conversations []crm.Conversation `yaml:"conversations"`
	Insights      []crm.Insight      `yaml:"insights"`
}

// LoadDataset decodes a YAML dataset and sanitizes every record.
func LoadDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil && err != io.EOF {
		return Dataset{}, fmt.Errorf("datasource: decode dataset: %w", err)
	}
	for i := range ds.Customers {
		ds.Customers[i].Sanitize()
	}
	for i := range ds.Conversations {
		ds.Conversations[i].Sanitize()
	}
	for i := range ds.Insights {
		ds.Insights[i].Sanitize()
	}
	return ds, nil
}

// LoadDatasetFile reads a YAML dataset from disk.
func LoadDatasetFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("datasource: open dataset: %w", err)
	}
	defer f.Close()
	return LoadDataset(f)
}

// Memory serves an immutable dataset, evaluating descriptors in process.
type Memory struct {
	ds Dataset
}

// NewMemory wraps a dataset.
func NewMemory(ds Dataset) *Memory {
	return &Memory{ds: ds}
}

// FetchCustomers implements Source.
func (m *Memory) FetchCustomers(_ context.Context, d query.Descriptor) ([]crm.Customer, error) {
	return run(d, m.ds.Customers), nil
}

// FetchConversations implements Source.
func (m *Memory) FetchConversations(_ context.Context, d query.Descriptor) ([]crm.Conversation, error) {
	return run(d, m.ds.Conversations), nil
}

// FetchInsights implements Source.
func (m *Memory) FetchInsights(_ context.Context, d query.Descriptor) ([]crm.Insight, error) {
	return run(d, m.ds.Insights), nil
}

// ListCategories implements Vocabulary.
func (m *Memory) ListCategories(context.Context) ([]crm.CategoryCount, error) {
	ranked := stats.Ranked(m.ds.Insights, func(in crm.Insight) []string { return []string{string(in.Category)} })
	out := make([]crm.CategoryCount, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, crm.CategoryCount{Category: crm.Category(c.Value), Count: c.Count})
	}
	return out, nil
}

// ListTopics implements Vocabulary.
func (m *Memory) ListTopics(context.Context) ([]crm.TopicCount, error) {
	ranked := stats.Ranked(m.ds.Insights, func(in crm.Insight) []string { return in.Topics })
	out := make([]crm.TopicCount, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, crm.TopicCount{Topic: c.Value, Count: c.Count})
	}
	return out, nil
}

// run filters, orders and limits a copy of records.
func run[R crm.Record](d query.Descriptor, records []R) []R {
	unlimited := d
	unlimited.Limit = 0
	out := query.Filter(unlimited, records)
	if len(d.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range d.OrderBy {
				c := compareColumn(out[i], out[j], o.Column)
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if d.Limit > 0 && len(out) > d.Limit {
		out = out[:d.Limit]
	}
	return out
}

// compareColumn orders two records by a column. Missing and unparsable
// values order first, so they trail a descending sort.
func compareColumn(a, b crm.Record, col string) int {
	av, aok := a.Column(col)
	bv, bok := b.Column(col)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	switch x := av.(type) {
	case crm.Date:
		y, _ := bv.(crm.Date)
		switch {
		case !x.Valid() && !y.Valid():
			return 0
		case !x.Valid():
			return -1
		case !y.Valid():
			return 1
		}
		return x.Time.Compare(y.Time)
	case float64:
		y, _ := bv.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y, _ := bv.(string)
		return strings.Compare(x, y)
	}
	return 0
}
