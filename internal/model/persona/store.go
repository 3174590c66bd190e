package persona

// Store exposes persona retrieval for the session layer and the CLI.
type Store interface {
	List() []Persona
	FindByKey(key Key) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice; the catalog is fixed
// at build time so nothing richer is needed.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByKey looks up a persona by its type key.
func (s *MemoryStore) FindByKey(key Key) (Persona, bool) {
	for _, item := range s.items {
		if item.Key == key {
			return item, true
		}
	}
	return Persona{}, false
}

// Default 返回历史默认的夥伴类型（解決型）。
func (s *MemoryStore) Default() Persona {
	if p, ok := s.FindByKey(KeySolution); ok {
		return p
	}
	return s.items[0]
}
