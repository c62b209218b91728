package realtime

import "github.com/wolfman30/insightdesk/internal/crm"

// WorkingSet is the in-memory record list a live table renders. It is
// owned by one goroutine and is not safe for concurrent use.
type WorkingSet[T crm.Record] struct {
	items []T
}

// NewWorkingSet copies items into a new set.
func NewWorkingSet[T crm.Record](items []T) *WorkingSet[T] {
	return &WorkingSet[T]{items: append([]T(nil), items...)}
}

// Items returns a copy of the records in display order.
func (w *WorkingSet[T]) Items() []T {
	return append([]T(nil), w.items...)
}

// Len returns the number of records.
func (w *WorkingSet[T]) Len() int { return len(w.items) }

// Replace swaps in a freshly fetched list.
func (w *WorkingSet[T]) Replace(items []T) {
	w.items = append([]T(nil), items...)
}

// Insert prepends item. A record already present under the same id is
// removed first so ids stay unique.
func (w *WorkingSet[T]) Insert(item T) {
	w.remove(item.RecordID())
	w.items = append([]T{item}, w.items...)
}

// Update replaces the record with item's id in place, or prepends item
// when no such record exists.
func (w *WorkingSet[T]) Update(item T) {
	if i := w.index(item.RecordID()); i >= 0 {
		w.items[i] = item
		return
	}
	w.items = append([]T{item}, w.items...)
}

// Delete removes the record with id and reports whether it was present.
func (w *WorkingSet[T]) Delete(id string) bool {
	return w.remove(id)
}

// Apply merges one change event.
func (w *WorkingSet[T]) Apply(ev Event) error {
	switch ev.Type {
	case EventDelete:
		w.Delete(ev.ID)
		return nil
	case EventInsert, EventUpdate:
		item, err := DecodeRecord[T](ev)
		if err != nil {
			return err
		}
		if ev.Type == EventInsert {
			w.Insert(item)
		} else {
			w.Update(item)
		}
		return nil
	}
	return ErrInvalidEvent
}

func (w *WorkingSet[T]) index(id string) int {
	for i, it := range w.items {
		if it.RecordID() == id {
			return i
		}
	}
	return -1
}

func (w *WorkingSet[T]) remove(id string) bool {
	i := w.index(id)
	if i < 0 {
		return false
	}
	w.items = append(w.items[:i], w.items[i+1:]...)
	return true
}
