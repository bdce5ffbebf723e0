package domain

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Persister saves and restores namespace dictionaries. A Store without one
// is purely in-memory.
type Persister interface {
	LoadDictionaries(ctx context.Context) (map[string]*Dictionary, error)
	SaveDictionary(ctx context.Context, namespace string, d *Dictionary) error
}

// Store is the process-wide registry of namespace dictionaries. Each
// namespace has its own lock; namespaces never interact.
type Store struct {
	mu         sync.Mutex
	namespaces map[string]*namespaceEntry
	persister  Persister
	loaded     bool
}

type namespaceEntry struct {
	mu   sync.RWMutex
	dict *Dictionary // nil until the first committed update
}

// NewStore creates an empty store. persister may be nil.
func NewStore(persister Persister) *Store {
	return &Store{
		namespaces: make(map[string]*namespaceEntry),
		persister:  persister,
	}
}

// Load hydrates the store from its persister. Without a persister it only
// marks the store as loaded.
func (s *Store) Load(ctx context.Context) error {
	if s.persister != nil {
		dicts, err := s.persister.LoadDictionaries(ctx)
		if err != nil {
			return fmt.Errorf("load dictionaries: %w", err)
		}
		s.mu.Lock()
		for ns, d := range dicts {
			s.namespaces[ns] = &namespaceEntry{dict: d}
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Loaded reports whether Load has completed.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Update applies fn to a copy of the namespace's dictionary, creating the
// namespace on first use. The copy is committed and persisted only when fn
// returns nil. The namespace stays locked until fn and persistence finish.
func (s *Store) Update(ctx context.Context, namespace string, fn func(d *Dictionary) error) error {
	return s.UpdateThen(ctx, namespace, fn, nil)
}

// UpdateThen is Update followed by committed, which runs against the newly
// committed dictionary before the namespace lock is released. committed is
// skipped when fn or persistence fails and must not modify the dictionary.
func (s *Store) UpdateThen(ctx context.Context, namespace string, fn func(d *Dictionary) error, committed func(d *Dictionary)) error {
	e := s.entry(namespace)

	e.mu.Lock()
	defer e.mu.Unlock()

	var working *Dictionary
	if e.dict == nil {
		working = NewDictionary()
	} else {
		working = e.dict.Clone()
	}

	if err := fn(working); err != nil {
		return err
	}

	if s.persister != nil {
		if err := s.persister.SaveDictionary(ctx, namespace, working); err != nil {
			return fmt.Errorf("persist namespace %q: %w", namespace, err)
		}
	}
	e.dict = working
	if committed != nil {
		committed(working)
	}
	return nil
}

// View runs fn against the committed dictionary of a trained namespace. fn
// must not modify the dictionary.
func (s *Store) View(_ context.Context, namespace string, fn func(d *Dictionary) error) error {
	s.mu.Lock()
	e, ok := s.namespaces[namespace]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNamespaceNotTrained, namespace)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.dict == nil {
		return fmt.Errorf("%w: %q", ErrNamespaceNotTrained, namespace)
	}
	return fn(e.dict)
}

// Trained reports whether namespace has a committed dictionary.
func (s *Store) Trained(namespace string) bool {
	s.mu.Lock()
	e, ok := s.namespaces[namespace]
	s.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dict != nil
}

// Namespaces returns the trained namespaces in sorted order.
func (s *Store) Namespaces() []string {
	s.mu.Lock()
	entries := make(map[string]*namespaceEntry, len(s.namespaces))
	for ns, e := range s.namespaces {
		entries[ns] = e
	}
	s.mu.Unlock()

	names := make([]string, 0, len(entries))
	for ns, e := range entries {
		e.mu.RLock()
		trained := e.dict != nil
		e.mu.RUnlock()
		if trained {
			names = append(names, ns)
		}
	}
	slices.Sort(names)
	return names
}

func (s *Store) entry(namespace string) *namespaceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.namespaces[namespace]
	if !ok {
		e = &namespaceEntry{}
		s.namespaces[namespace] = e
	}
	return e
}
