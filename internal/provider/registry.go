package provider

// Registry is the dispatch table from provider tag to adapter.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
	}

	return r
}

// Get returns the adapter for name. An unrecognized name yields no
// adapter; the caller treats that as "no launch path", not an error.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}
