package connect

import "sync"

// Store holds the params of one flow and fans out every observable
// change to its subscribers. It performs no validation; deciding which
// writes are legal is the Controller's job.
type Store struct {
	mu     sync.Mutex
	params Params
	subs   map[int]func(Params)
	nextID int
}

func NewStore() *Store {
	return &Store{
		subs: make(map[int]func(Params)),
	}
}

// NewStoreWith seeds a store with existing params, used when a flow is
// reconstructed from its shareable encoding.
func NewStoreWith(params Params) *Store {
	s := NewStore()
	s.params = params

	return s
}

// Read returns a snapshot of the current params.
func (s *Store) Read() Params {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.params
}

// Write merges the patch into the current params. Writes that change
// nothing, including the empty patch, are not observable.
func (s *Store) Write(patch Patch) {
	s.mu.Lock()
	next := patch.apply(s.params)
	if next == s.params {
		s.mu.Unlock()
		return
	}
	s.params = next

	subs := make([]func(Params), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Reset clears all fields.
func (s *Store) Reset() {
	s.Write(Patch{
		Step:          Set(StepNone),
		Provider:      Set(ProviderNone),
		InstitutionID: Set(""),
		CountryCode:   Set(""),
		Query:         Set(""),
		Token:         Set(""),
		EnrollmentID:  Set(""),
	})
}

// Subscribe registers fn to be called with a snapshot after every
// observable write. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(Params)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
