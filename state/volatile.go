package state

import "github.com/rotisserie/eris"

// VolatileStorage is the in-memory key value storage the Store is built on.
type VolatileStorage[K comparable, V any] interface {
	Get(key K) (V, error)
	Set(key K, value V) error
	Delete(key K) error
	Keys() ([]K, error)
	Len() int
	Clear() error
}

var _ VolatileStorage[string, any] = &MapStorage[string, any]{}

type MapStorage[K comparable, V any] struct {
	items map[K]V
}

func NewMapStorage[K comparable, V any]() *MapStorage[K, V] {
	return &MapStorage[K, V]{
		items: make(map[K]V),
	}
}

func (m *MapStorage[K, V]) Keys() ([]K, error) {
	acc := make([]K, 0, len(m.items))
	for k := range m.items {
		acc = append(acc, k)
	}
	return acc, nil
}

func (m *MapStorage[K, V]) Get(key K) (V, error) {
	v, ok := m.items[key]
	if !ok {
		return v, eris.New("key not found")
	}
	return v, nil
}

func (m *MapStorage[K, V]) Set(key K, value V) error {
	m.items[key] = value
	return nil
}

func (m *MapStorage[K, V]) Delete(key K) error {
	delete(m.items, key)
	return nil
}

func (m *MapStorage[K, V]) Len() int {
	return len(m.items)
}

func (m *MapStorage[K, V]) Clear() error {
	m.items = make(map[K]V)
	return nil
}
