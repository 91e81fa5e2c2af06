package urlstate

import (
	"net/url"
	"strings"
)

// Store is the address space shared by the table state controllers. Every
// write goes through synchronously and then notifies listeners with the new
// encoded address. A Store is owned by the UI event loop and is not safe for
// concurrent use.
type Store struct {
	values    url.Values
	listeners []func(address string)
}

// NewStore creates an empty address space
func NewStore() *Store {
	return &Store{values: url.Values{}}
}

// Parse creates a store from a shareable address. Both a bare query string
// and a full URL are accepted; unparsable pairs are skipped.
func Parse(address string) *Store {
	address = strings.TrimSpace(address)
	if i := strings.Index(address, "?"); i >= 0 {
		address = address[i+1:]
	}
	if i := strings.Index(address, "#"); i >= 0 {
		address = address[:i]
	}
	values, _ := url.ParseQuery(address)
	if values == nil {
		values = url.Values{}
	}
	return &Store{values: values}
}

// Encode returns the shareable address (query string form)
func (s *Store) Encode() string {
	return s.values.Encode()
}

// Values returns a copy of the raw address values
func (s *Store) Values() url.Values {
	out := make(url.Values, len(s.values))
	for k, v := range s.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// OnChange registers a listener called after every write
func (s *Store) OnChange(fn func(address string)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) write(apply func(url.Values)) {
	apply(s.values)
	address := s.Encode()
	for _, fn := range s.listeners {
		fn(address)
	}
}

// Field is a typed view of one slice of the address space
type Field[T any] struct {
	store *Store
	codec Codec[T]
}

// Bind attaches a codec to the store
func Bind[T any](s *Store, codec Codec[T]) *Field[T] {
	return &Field[T]{store: s, codec: codec}
}

// Get decodes the slice from the current address
func (f *Field[T]) Get() T {
	return f.codec.Decode(f.store.values)
}

// Set replaces the slice and writes it through to the address
func (f *Field[T]) Set(v T) {
	f.store.write(func(values url.Values) {
		f.codec.Encode(v, values)
	})
}
