package chain

// Results maps step names to outputs and remembers the order in which names first appeared.
type Results struct {
	names  []string
	values map[string]string
}

func newResults(size int) *Results {
	return &Results{
		names:  make([]string, 0, size),
		values: make(map[string]string, size),
	}
}

func (r *Results) set(name, value string) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = value
}

func (r *Results) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names in first-completion order. A repeated name keeps its original position.
func (r *Results) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Results) Len() int {
	return len(r.names)
}

// Map returns a copy.
func (r *Results) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
