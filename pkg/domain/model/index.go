package model

import (
	"bytes"
	"iter"

	"github.com/m-mizutani/goerr/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Index is a string-keyed map that remembers first-insertion order.
// Setting an existing key replaces its value in place (last write wins).
// The zero value is ready to use.
type Index[V any] struct {
	pairs *orderedmap.OrderedMap[string, V]
}

// NewIndex creates an empty Index
func NewIndex[V any]() *Index[V] {
	return &Index[V]{pairs: orderedmap.New[string, V]()}
}

func (x *Index[V]) init() {
	if x.pairs == nil {
		x.pairs = orderedmap.New[string, V]()
	}
}

// Set inserts or replaces the value for key
func (x *Index[V]) Set(key string, value V) {
	x.init()
	x.pairs.Set(key, value)
}

// Get returns the value for key
func (x *Index[V]) Get(key string) (V, bool) {
	if x == nil || x.pairs == nil {
		var zero V
		return zero, false
	}
	return x.pairs.Get(key)
}

// Has reports whether key is present
func (x *Index[V]) Has(key string) bool {
	_, ok := x.Get(key)
	return ok
}

// Len returns the number of entries
func (x *Index[V]) Len() int {
	if x == nil || x.pairs == nil {
		return 0
	}
	return x.pairs.Len()
}

// Keys returns the keys in insertion order
func (x *Index[V]) Keys() []string {
	keys := make([]string, 0, x.Len())
	for k := range x.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates entries in insertion order
func (x *Index[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if x == nil || x.pairs == nil {
			return
		}
		for pair := x.pairs.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// MarshalJSON encodes the index as a JSON object, keys in insertion order
func (x *Index[V]) MarshalJSON() ([]byte, error) {
	x.init()
	data, err := x.pairs.MarshalJSON()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode index")
	}
	return data, nil
}

// UnmarshalJSON decodes a JSON object keeping the order of its members.
// null decodes to an empty index.
func (x *Index[V]) UnmarshalJSON(data []byte) error {
	x.pairs = orderedmap.New[string, V]()
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return goerr.New("index must be a JSON object", goerr.V("data", string(trimmed)))
	}
	if err := x.pairs.UnmarshalJSON(trimmed); err != nil {
		return goerr.Wrap(err, "failed to decode index")
	}
	return nil
}

// MarshalYAML encodes the index as a YAML mapping, keys in insertion order
func (x *Index[V]) MarshalYAML() (any, error) {
	x.init()
	node, err := x.pairs.MarshalYAML()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode index")
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping keeping the order of its keys
func (x *Index[V]) UnmarshalYAML(node *yaml.Node) error {
	x.pairs = orderedmap.New[string, V]()
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return goerr.New("index must be a YAML mapping", goerr.V("line", node.Line))
	}
	if err := x.pairs.UnmarshalYAML(node); err != nil {
		return goerr.Wrap(err, "failed to decode index", goerr.V("line", node.Line))
	}
	return nil
}
