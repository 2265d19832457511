package circuit

// Queue is a binary min-heap of candidate edges ordered by
// (Distance, A, B). Every edge is returned by Pop at most once.
type Queue struct {
	items []Edge
}

// NewQueue takes ownership of edges and heapifies them in place in O(n).
func NewQueue(edges []Edge) *Queue {
	q := &Queue{items: edges}
	for i := len(q.items)/2 - 1; i >= 0; i-- {
		q.bubbleDown(i)
	}
	return q
}

// Len returns the number of edges not yet popped.
func (q *Queue) Len() int {
	return len(q.items)
}

// Peek returns the next edge without removing it.
func (q *Queue) Peek() (Edge, bool) {
	if len(q.items) == 0 {
		return Edge{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the closest remaining edge.
// It returns false once the queue is exhausted.
func (q *Queue) Pop() (Edge, bool) {
	n := len(q.items)
	if n == 0 {
		return Edge{}, false
	}

	top := q.items[0]
	last := n - 1
	q.items[0] = q.items[last]
	q.items = q.items[:last]
	if last > 0 {
		q.bubbleDown(0)
	}
	return top, true
}

func (q *Queue) bubbleDown(idx int) {
	n := len(q.items)
	for {
		left := 2*idx + 1
		right := left + 1
		smallest := idx

		if left < n && q.items[left].less(q.items[smallest]) {
			smallest = left
		}
		if right < n && q.items[right].less(q.items[smallest]) {
			smallest = right
		}
		if smallest == idx {
			return
		}

		q.items[idx], q.items[smallest] = q.items[smallest], q.items[idx]
		idx = smallest
	}
}
