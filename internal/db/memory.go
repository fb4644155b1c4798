package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation. It backs the repository
// and service tests and doubles as a local development store. Subscription
// snapshots are delivered synchronously on the writing goroutine, which makes
// cascade behaviour deterministic under test.
type MemoryStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]interface{}
	subs    map[int]*memorySub
	nextSub int
	nextID  int
	// writeErr, when set, fails every write operation. Tests use it to
	// exercise transport-failure paths.
	writeErr error
}

type memorySub struct {
	docPath  string
	query    CollectionQuery
	onDoc    func(Document, bool)
	onColl   func([]Document)
	canceled bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]interface{}),
		subs: make(map[int]*memorySub),
	}
}

// SetWriteError forces subsequent writes to fail with err. Pass nil to clear.
func (s *MemoryStore) SetWriteError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Seed inserts a document without notifying subscribers. Test setup helper.
func (s *MemoryStore) Seed(path string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = copyFields(data)
}

func (s *MemoryStore) GetDocument(_ context.Context, path string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[path]
	if !ok {
		return Document{}, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	return Document{ID: docID(path), Data: copyFields(data)}, nil
}

func (s *MemoryStore) SetDocument(_ context.Context, path string, data map[string]interface{}) error {
	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return fmt.Errorf("set %s: %w", path, err)
	}
	s.docs[path] = copyFields(data)
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	runNotifications(notify)
	return nil
}

func (s *MemoryStore) UpdateFields(_ context.Context, path string, fields map[string]interface{}) error {
	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", path, err)
	}
	doc, ok := s.docs[path]
	if !ok {
		doc = make(map[string]interface{})
		s.docs[path] = doc
	}
	for k, v := range copyFields(fields) {
		doc[k] = v
	}
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	runNotifications(notify)
	return nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, path string) error {
	s.mu.Lock()
	if s.writeErr != nil {
		err := s.writeErr
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", path, err)
	}
	delete(s.docs, path)
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	runNotifications(notify)
	return nil
}

func (s *MemoryStore) SubscribeDocument(_ context.Context, path string, onSnapshot func(Document, bool), onError func(error)) Handle {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	sub := &memorySub{docPath: path, onDoc: onSnapshot}
	s.subs[id] = sub
	data, exists := s.docs[path]
	doc := Document{ID: docID(path)}
	if exists {
		doc.Data = copyFields(data)
	}
	s.mu.Unlock()

	// Initial snapshot, like a Firestore listener's first delivery.
	onSnapshot(doc, exists)

	return handleFunc(func() {
		s.mu.Lock()
		sub.canceled = true
		delete(s.subs, id)
		s.mu.Unlock()
	})
}

func (s *MemoryStore) SubscribeCollection(_ context.Context, q CollectionQuery, onSnapshot func([]Document), onError func(error)) Handle {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	sub := &memorySub{query: q, onColl: onSnapshot}
	s.subs[id] = sub
	docs := s.collectLocked(q)
	s.mu.Unlock()

	onSnapshot(docs)

	return handleFunc(func() {
		s.mu.Lock()
		sub.canceled = true
		delete(s.subs, id)
		s.mu.Unlock()
	})
}

func (s *MemoryStore) QueryEquals(_ context.Context, collectionPath, field string, value interface{}) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Document
	for path, data := range s.docs {
		if !inCollection(path, collectionPath) {
			continue
		}
		if data[field] == value {
			out = append(out, Document{ID: docID(path), Data: copyFields(data)})
		}
	}
	return out, nil
}

func (s *MemoryStore) NewID(string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return fmt.Sprintf("mem-%06d", s.nextID)
}

// pendingNotifications gathers, under the lock, the callbacks affected by a
// write to path together with their fresh snapshots.
func (s *MemoryStore) pendingNotifications(path string) []func() {
	var out []func()
	for _, sub := range s.subs {
		sub := sub
		switch {
		case sub.onDoc != nil && sub.docPath == path:
			data, exists := s.docs[path]
			doc := Document{ID: docID(path)}
			if exists {
				doc.Data = copyFields(data)
			}
			out = append(out, func() {
				if !sub.canceled {
					sub.onDoc(doc, exists)
				}
			})
		case sub.onColl != nil && inCollection(path, sub.query.Path):
			docs := s.collectLocked(sub.query)
			out = append(out, func() {
				if !sub.canceled {
					sub.onColl(docs)
				}
			})
		}
	}
	return out
}

func runNotifications(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

func (s *MemoryStore) collectLocked(q CollectionQuery) []Document {
	var docs []Document
	for path, data := range s.docs {
		if inCollection(path, q.Path) {
			docs = append(docs, Document{ID: docID(path), Data: copyFields(data)})
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if q.OrderBy != "" {
			less, ok := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if ok {
				if q.Ascending {
					return less
				}
				return !less
			}
		}
		return docs[i].ID < docs[j].ID
	})
	return docs
}

func compareValues(a, b interface{}) (less, ok bool) {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv), !av.Equal(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv, av != bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv, av != bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv, av != bv
		}
	}
	return false, false
}

func inCollection(docPath, collectionPath string) bool {
	rest, found := strings.CutPrefix(docPath, collectionPath+"/")
	return found && !strings.Contains(rest, "/")
}

func docID(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func copyFields(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch vv := v.(type) {
		case []string:
			out[k] = append([]string(nil), vv...)
		case []interface{}:
			out[k] = append([]interface{}(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}
