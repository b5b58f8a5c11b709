package alarm

import (
	"container/heap"
	"time"
)

type entry struct {
	key     string
	at      time.Time
	payload Payload
	index   int
}

// alarmQueue is a min-heap on fire instant with keyed access, so
// re-registering a key replaces its pending alarm in place.
type alarmQueue struct {
	entries []*entry
	byKey   map[string]*entry
}

func newAlarmQueue() *alarmQueue {
	q := &alarmQueue{
		byKey: map[string]*entry{},
	}
	heap.Init(q)
	return q
}

func (q *alarmQueue) Len() int { return len(q.entries) }

func (q *alarmQueue) Less(i, j int) bool {
	return q.entries[i].at.Before(q.entries[j].at)
}

func (q *alarmQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	q.entries[i].index = i
	q.entries[j].index = j
}

func (q *alarmQueue) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(q.entries)
	q.entries = append(q.entries, e)
	q.byKey[e.key] = e
}

func (q *alarmQueue) Pop() interface{} {
	n := len(q.entries)
	e := q.entries[n-1]
	q.entries = q.entries[:n-1]
	delete(q.byKey, e.key)
	return e
}

// set registers or replaces the alarm under key.
func (q *alarmQueue) set(key string, at time.Time, p Payload) {
	if e, ok := q.byKey[key]; ok {
		e.at = at
		e.payload = p
		heap.Fix(q, e.index)
		return
	}

	heap.Push(q, &entry{key: key, at: at, payload: p})
}

// popDue removes and returns every alarm with a fire instant at or before
// now, earliest first.
func (q *alarmQueue) popDue(now time.Time) []*entry {
	var due []*entry
	for len(q.entries) > 0 && !q.entries[0].at.After(now) {
		due = append(due, heap.Pop(q).(*entry))
	}

	return due
}
