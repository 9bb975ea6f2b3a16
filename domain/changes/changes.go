// Package changes implements the edit buffer: a ledger of pending per-entity
// operations relative to the last durable baseline. The buffer holds at most
// one record per entity id; repeated operations on the same id collapse
// through an explicit state machine instead of ad hoc map mutation.
package changes

// Kind classifies a pending operation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Record is one pending operation. After is set for create/update, Before for
// update/delete. Snapshots are owned by the record; callers pass clones.
type Record[T any] struct {
	EntityID string
	Kind     Kind
	Before   *T
	After    *T
}

// Set is the per-collection edit buffer. Records keep insertion order so a
// save pass replays them deterministically.
type Set[T any] struct {
	records map[string]*Record[T]
	order   []string
}

// NewSet creates an empty buffer.
func NewSet[T any]() *Set[T] {
	return &Set[T]{records: make(map[string]*Record[T])}
}

// Len returns the number of pending records.
func (s *Set[T]) Len() int { return len(s.records) }

// Get returns the pending record for id, or nil.
func (s *Set[T]) Get(id string) *Record[T] { return s.records[id] }

// Records returns all pending records in insertion order.
func (s *Set[T]) Records() []*Record[T] {
	out := make([]*Record[T], 0, len(s.records))
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Clear drops all pending records.
func (s *Set[T]) Clear() {
	s.records = make(map[string]*Record[T])
	s.order = nil
}

// TrackCreate records a creation. Creating over a pending delete means the
// entity was re-created under its old id: the record becomes an update so the
// original baseline snapshot stays restorable.
func (s *Set[T]) TrackCreate(id string, after *T) {
	if rec, ok := s.records[id]; ok && rec.Kind == KindDelete {
		rec.Kind = KindUpdate
		rec.After = after
		return
	}
	s.put(id, &Record[T]{EntityID: id, Kind: KindCreate, After: after})
}

// TrackUpdate records an update against the given baseline snapshot.
//
// State transitions:
//   - pending create: the entity was never persisted, so it stays a create
//     with the latest state as its payload
//   - pending update: the original before snapshot is kept, only after moves
//   - no record, baseline present: a fresh update record
//   - no record, no baseline: the entity was never persisted and never
//     tracked, so this is still a creation
func (s *Set[T]) TrackUpdate(id string, baseline, after *T) {
	if rec, ok := s.records[id]; ok {
		switch rec.Kind {
		case KindCreate:
			rec.After = after
		case KindUpdate:
			rec.After = after
		case KindDelete:
			// Delete followed by update means the entity was re-created in
			// the live graph; the original baseline still backs the record.
			rec.Kind = KindUpdate
			rec.After = after
		}
		return
	}
	if baseline != nil {
		s.put(id, &Record[T]{EntityID: id, Kind: KindUpdate, Before: baseline, After: after})
		return
	}
	s.put(id, &Record[T]{EntityID: id, Kind: KindCreate, After: after})
}

// TrackDelete records a deletion. A pending create cancels out entirely: the
// entity never existed durably, so no record remains. Returns true when the
// delete produced or kept a record, false on cancellation or no-op.
func (s *Set[T]) TrackDelete(id string, baseline *T) bool {
	if rec, ok := s.records[id]; ok {
		switch rec.Kind {
		case KindCreate:
			s.remove(id)
			return false
		case KindUpdate:
			rec.Kind = KindDelete
			rec.After = nil
			return true
		case KindDelete:
			return true
		}
	}
	if baseline == nil {
		return false
	}
	s.put(id, &Record[T]{EntityID: id, Kind: KindDelete, Before: baseline})
	return true
}

func (s *Set[T]) put(id string, rec *Record[T]) {
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = rec
}

func (s *Set[T]) remove(id string) {
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
