package capture

// ring is a bounded append-only event buffer. When the ceiling is
// exceeded the oldest entries are evicted so the newest capacity events
// survive, in original order.
type ring struct {
	buf      []Event
	capacity int
	start    int
	length   int
	evicted  int64
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]Event, capacity), capacity: capacity}
}

// append adds an event, evicting the oldest entry when full.
func (r *ring) append(e Event) {
	if r.length == r.capacity {
		r.buf[r.start] = e
		r.start = (r.start + 1) % r.capacity
		r.evicted++
		return
	}
	r.buf[(r.start+r.length)%r.capacity] = e
	r.length++
}

func (r *ring) len() int { return r.length }

// events returns the retained entries oldest-first as a fresh slice.
func (r *ring) events() []Event {
	out := make([]Event, r.length)
	for i := 0; i < r.length; i++ {
		out[i] = r.buf[(r.start+i)%r.capacity]
	}
	return out
}

// tail returns up to limit of the newest entries, oldest-first.
func (r *ring) tail(limit int) []Event {
	if limit <= 0 || limit >= r.length {
		return r.events()
	}
	out := make([]Event, limit)
	offset := r.length - limit
	for i := 0; i < limit; i++ {
		out[i] = r.buf[(r.start+offset+i)%r.capacity]
	}
	return out
}
