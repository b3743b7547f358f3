// Package pqueue implements a bounded priority queue that keeps items sorted
// by priority. Items of equal priority stay in insertion order.
package pqueue

import (
	"sort"
)

func WithOrderAsc() Option {
	return func(q *Queue) {
		q.order = orderAsc
	}
}

func WithOrderDesc() Option {
	return func(q *Queue) {
		q.order = orderDesc
	}
}

// WithCap bounds the queue; items pushed past the cap that sort last are dropped.
func WithCap(size uint) Option {
	return func(q *Queue) {
		q.cap = int(size)
	}
}

type Option func(*Queue)

type order uint8

const (
	orderAsc order = iota
	orderDesc
)

type item struct {
	value interface{}
	prior float64
}

func New(opts ...Option) *Queue {
	p := &Queue{order: orderAsc, cap: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Queue struct {
	order order
	cap   int
	items []item
}

func (q *Queue) PopAll() []interface{} {
	pulled := make([]interface{}, len(q.items))
	for i := range q.items {
		pulled[i] = q.items[i].value
	}
	q.items = q.items[:0]
	return pulled
}

func (q *Queue) Head() interface{} {
	if len(q.items) == 0 {
		return nil
	}
	x := q.items[0]
	q.items = q.items[1:]
	return x.value
}

func (q *Queue) Tail() interface{} {
	l := len(q.items) - 1
	if l < 0 {
		return nil
	}
	x := q.items[l]
	q.items = q.items[:l]
	return x.value
}

// Push inserts val after every queued item whose priority does not sort after it.
func (q *Queue) Push(val interface{}, priority float64) {
	idx := sort.Search(len(q.items), func(i int) bool {
		return q.after(q.items[i].prior, priority)
	})
	if q.cap >= 0 && idx >= q.cap {
		return
	}
	q.items = append(q.items, item{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = item{value: val, prior: priority}
	if q.cap >= 0 && len(q.items) > q.cap {
		q.items = q.items[:q.cap]
	}
}

func (q *Queue) after(prior, than float64) bool {
	if q.order == orderAsc {
		return prior > than
	}
	return prior < than
}

func (q *Queue) Cap() int { return q.cap }

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Seek(idx int) (interface{}, float64) {
	item := q.items[idx]
	return item.value, item.prior
}
