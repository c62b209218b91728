package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/insightdesk/internal/crm"
)

func customerEvent(t *testing.T, typ EventType, c crm.Customer) Event {
	t.Helper()
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	return Event{Entity: crm.EntityCustomers, Type: typ, ID: c.ID, Record: raw}
}

func ids(items []crm.Customer) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}

func TestWorkingSetMergeRules(t *testing.T) {
	ws := NewWorkingSet([]crm.Customer{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})

	require.NoError(t, ws.Apply(customerEvent(t, EventInsert, crm.Customer{ID: "c", Name: "C"})))
	assert.Equal(t, []string{"c", "a", "b"}, ids(ws.Items()))

	require.NoError(t, ws.Apply(customerEvent(t, EventUpdate, crm.Customer{ID: "b", Name: "B2"})))
	items := ws.Items()
	assert.Equal(t, []string{"c", "a", "b"}, ids(items))
	assert.Equal(t, "B2", items[2].Name)

	require.NoError(t, ws.Apply(Event{Entity: crm.EntityCustomers, Type: EventDelete, ID: "a"}))
	assert.Equal(t, []string{"c", "b"}, ids(ws.Items()))
}

func TestWorkingSetUpdateOfUnknownIDPrepends(t *testing.T) {
	ws := NewWorkingSet([]crm.Customer{{ID: "a"}})
	ws.Update(crm.Customer{ID: "z"})
	assert.Equal(t, []string{"z", "a"}, ids(ws.Items()))
}

func TestWorkingSetInsertKeepsIDsUnique(t *testing.T) {
	ws := NewWorkingSet([]crm.Customer{{ID: "a"}, {ID: "b"}})
	ws.Insert(crm.Customer{ID: "b", Name: "again"})
	assert.Equal(t, []string{"b", "a"}, ids(ws.Items()))
	assert.Equal(t, 2, ws.Len())
}

func TestWorkingSetDeleteMissing(t *testing.T) {
	ws := NewWorkingSet([]crm.Customer{{ID: "a"}})
	assert.False(t, ws.Delete("nope"))
	assert.Equal(t, 1, ws.Len())
}

func TestWorkingSetRejectsUndecodableRecord(t *testing.T) {
	ws := NewWorkingSet[crm.Customer](nil)
	err := ws.Apply(Event{Entity: crm.EntityCustomers, Type: EventInsert, ID: "x", Record: json.RawMessage(`[1,2]`)})
	assert.ErrorIs(t, err, ErrInvalidEvent)
	assert.Zero(t, ws.Len())
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"entity":"insights","type":"INSERT","record":{"id":"i9","text":"new"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventInsert, ev.Type)
	assert.Equal(t, "i9", ev.ID)

	for name, payload := range map[string]string{
		"bad json":       `{`,
		"unknown entity": `{"entity":"deals","type":"insert","id":"1","record":{}}`,
		"unknown type":   `{"entity":"insights","type":"upsert","id":"1","record":{}}`,
		"missing id":     `{"entity":"insights","type":"delete"}`,
		"missing record": `{"entity":"insights","type":"update","id":"1"}`,
	} {
		_, err := ParseEvent([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidEvent, name)
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	events  int
	dropped int
}

func (o *recordingObserver) ObserveEvent(string, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events++
}

func (o *recordingObserver) ObserveDrop(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

func TestHubFansOutPerEntity(t *testing.T) {
	hub := NewHub(4, nil, nil)
	a := hub.Subscribe(crm.EntityInsights)
	b := hub.Subscribe(crm.EntityInsights)
	other := hub.Subscribe(crm.EntityCustomers)
	defer a.Close()
	defer b.Close()
	defer other.Close()

	n := hub.Publish(Event{Entity: crm.EntityInsights, Type: EventDelete, ID: "i1"})
	assert.Equal(t, 2, n)
	assert.Equal(t, "i1", (<-a.C).ID)
	assert.Equal(t, "i1", (<-b.C).ID)
	select {
	case ev := <-other.C:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	obs := &recordingObserver{}
	hub := NewHub(1, obs, nil)
	s := hub.Subscribe(crm.EntityCustomers)
	defer s.Close()

	assert.Equal(t, 1, hub.Publish(Event{Entity: crm.EntityCustomers, Type: EventDelete, ID: "1"}))
	assert.Equal(t, 0, hub.Publish(Event{Entity: crm.EntityCustomers, Type: EventDelete, ID: "2"}))
	assert.Equal(t, 2, obs.events)
	assert.Equal(t, 1, obs.dropped)
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub(0, nil, nil)
	s := hub.Subscribe(crm.EntityCustomers)
	s.Close()
	s.Close()
	_, open := <-s.C
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers(crm.EntityCustomers))
}

type fakeNotifier struct {
	ch     chan *pq.Notification
	closed bool
}

func (f *fakeNotifier) NotificationChannel() <-chan *pq.Notification { return f.ch }
func (f *fakeNotifier) Ping() error                                  { return nil }
func (f *fakeNotifier) Close() error {
	f.closed = true
	return nil
}

type recordingInvalidator struct {
	mu       sync.Mutex
	entities []crm.Entity
	err      error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, e crm.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = append(r.entities, e)
	return r.err
}

func TestListenerPublishesAndInvalidates(t *testing.T) {
	n := &fakeNotifier{ch: make(chan *pq.Notification, 4)}
	hub := NewHub(4, nil, nil)
	sub := hub.Subscribe(crm.EntityConversations)
	defer sub.Close()
	inv := &recordingInvalidator{err: errors.New("redis down")}

	l := NewListenerWithNotifier(n, hub, inv, nil)
	n.ch <- &pq.Notification{Channel: "crm_changes", Extra: `{"entity":"conversations","type":"delete","id":"v1"}`}
	n.ch <- &pq.Notification{Channel: "crm_changes", Extra: `not json`}
	n.ch <- nil
	close(n.ch)

	require.NoError(t, l.Run(context.Background()))
	assert.True(t, n.closed)

	select {
	case ev := <-sub.C:
		assert.Equal(t, "v1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}
	assert.Equal(t, []crm.Entity{
		crm.EntityConversations,
		crm.EntityCustomers, crm.EntityConversations, crm.EntityInsights,
	}, inv.entities)
}

func TestListenerStopsOnContextCancel(t *testing.T) {
	n := &fakeNotifier{ch: make(chan *pq.Notification)}
	l := NewListenerWithNotifier(n, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}
