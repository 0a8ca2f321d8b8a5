// Package tree provides an insertion-ordered mapping used to hold
// configuration trees decoded from ruleset files.
package tree

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value any
}

// Map is a string-keyed mapping that remembers insertion order.
// Values are scalars (string, int64, float64, bool, date/time values),
// []any lists, nested *Map values, or nil.
type Map struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty Map.
func New() *Map {
	return &Map{index: make(map[string]int)}
}

// FromEntries builds a Map from pairs in the given order. A repeated key
// overwrites the earlier value but keeps its original position.
func FromEntries(entries ...Entry) *Map {
	m := New()
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set stores value under key, appending the key if it is new.
func (m *Map) Set(key string, value any) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// HasMapChild reports whether any direct child value is itself a *Map.
func (m *Map) HasMapChild() bool {
	if m == nil {
		return false
	}
	for _, e := range m.entries {
		if _, ok := e.Value.(*Map); ok {
			return true
		}
	}
	return false
}
