package expr

import (
	"github.com/sandrolain/goxp/pkg/types"
)

// SequenceIterator is the uniform pull-based cursor every expression
// result stream implements.
//
// Next is the only mutator: it advances to the next item and returns it,
// or returns (nil, nil) once the sequence is exhausted. Calling Next past
// exhaustion keeps returning no item without moving the position.
// Position is 1-based, 0 before the first item and -1 once exhausted.
// Clone produces an independent cursor positioned before the first item,
// used when a sequence must be consumed more than once. Close is an
// advisory, idempotent hook letting eager iterators release resources
// when abandoned mid-stream.
type SequenceIterator interface {
	Next() (types.Item, error)
	Current() types.Item
	Position() int
	Clone() SequenceIterator
	Close()
}

// emptyIterator is the iterator over the empty sequence.
type emptyIterator struct{ pos int }

// EmptyIterator returns an iterator over the empty sequence.
func EmptyIterator() SequenceIterator { return &emptyIterator{} }

func (it *emptyIterator) Next() (types.Item, error) {
	it.pos = -1
	return nil, nil
}
func (it *emptyIterator) Current() types.Item     { return nil }
func (it *emptyIterator) Position() int           { return it.pos }
func (it *emptyIterator) Clone() SequenceIterator { return &emptyIterator{} }
func (it *emptyIterator) Close()                  {}

// singletonIterator iterates over exactly one item.
type singletonIterator struct {
	item types.Item
	pos  int
}

// SingletonIterator returns an iterator over a single item. A nil item
// yields the empty sequence.
func SingletonIterator(item types.Item) SequenceIterator {
	if item == nil {
		return EmptyIterator()
	}
	return &singletonIterator{item: item}
}

func (it *singletonIterator) Next() (types.Item, error) {
	switch it.pos {
	case 0:
		it.pos = 1
		return it.item, nil
	default:
		it.pos = -1
		return nil, nil
	}
}

func (it *singletonIterator) Current() types.Item {
	if it.pos == 1 {
		return it.item
	}
	return nil
}
func (it *singletonIterator) Position() int           { return it.pos }
func (it *singletonIterator) Clone() SequenceIterator { return &singletonIterator{item: it.item} }
func (it *singletonIterator) Close()                  {}

// sliceIterator iterates over a materialized sequence.
type sliceIterator struct {
	items []types.Item
	pos   int // 0 before first; -1 exhausted; else 1-based index
}

// SliceIterator returns an iterator over a materialized sequence.
func SliceIterator(items []types.Item) SequenceIterator {
	return &sliceIterator{items: items}
}

func (it *sliceIterator) Next() (types.Item, error) {
	if it.pos < 0 {
		return nil, nil
	}
	if it.pos >= len(it.items) {
		it.pos = -1
		return nil, nil
	}
	it.pos++
	return it.items[it.pos-1], nil
}

func (it *sliceIterator) Current() types.Item {
	if it.pos <= 0 {
		return nil
	}
	return it.items[it.pos-1]
}
func (it *sliceIterator) Position() int           { return it.pos }
func (it *sliceIterator) Clone() SequenceIterator { return &sliceIterator{items: it.items} }
func (it *sliceIterator) Close()                  {}

// Materialize drains an iterator into a slice.
func Materialize(it SequenceIterator) ([]types.Item, error) {
	var items []types.Item
	for {
		item, err := it.Next()
		if err != nil {
			return nil, err
		}
		if item == nil {
			return items, nil
		}
		items = append(items, item)
	}
}

// First returns the first item of an iterator, or nil for an empty
// sequence, closing the iterator afterwards.
func First(it SequenceIterator) (types.Item, error) {
	item, err := it.Next()
	it.Close()
	return item, err
}
