package pebbledb

import (
	"github.com/cockroachdb/pebble"
)

// iteratorImpl adapts pebble.Iterator to the Next-first contract of db.Iterator.
// An iterator that failed to open only carries err.
type iteratorImpl struct {
	it      *pebble.Iterator
	started bool
	valid   bool
	err     error
}

func (i *iteratorImpl) Next() bool {
	if i.it == nil {
		return false
	}

	if !i.started {
		i.started = true
		i.valid = i.it.First()
	} else if i.valid {
		i.valid = i.it.Next()
	}
	return i.valid
}

func (i *iteratorImpl) Key() []byte {
	if !i.valid {
		return nil
	}
	return append([]byte{}, i.it.Key()...)
}

func (i *iteratorImpl) Value() []byte {
	if !i.valid {
		return nil
	}
	return append([]byte{}, i.it.Value()...)
}

func (i *iteratorImpl) Error() error {
	if i.err != nil {
		return i.err
	}
	if i.it == nil {
		return nil
	}
	return i.it.Error()
}

func (i *iteratorImpl) Close() error {
	if i.it == nil {
		return nil
	}
	err := i.it.Close()
	i.it = nil
	i.valid = false
	return err
}
