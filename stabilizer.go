package tinsel

// Stabilizer debounces raw per-frame gestures with a majority vote over a
// short rolling history.
type Stabilizer struct {
	history []Gesture
	size    int
	stable  Gesture
}

// NewStabilizer creates a stabilizer with a window of size samples.
// Sizes below 1 are treated as 1.
func NewStabilizer(size int) *Stabilizer {
	if size < 1 {
		size = 1
	}
	return &Stabilizer{
		history: make([]Gesture, 0, size+1),
		size:    size,
	}
}

// Push records a raw gesture and returns the stable gesture. changed is true
// only on the sample where the stable gesture differs from the previous one.
func (s *Stabilizer) Push(g Gesture) (stable Gesture, changed bool) {
	s.history = append(s.history, g)
	if len(s.history) > s.size {
		copy(s.history, s.history[1:])
		s.history = s.history[:len(s.history)-1]
	}
	next := majority(s.history)
	changed = next != s.stable
	s.stable = next
	return next, changed
}

// Stable returns the current stable gesture.
func (s *Stabilizer) Stable() Gesture {
	return s.stable
}

// History returns the current window, oldest first. The returned slice MUST
// NOT be mutated.
func (s *Stabilizer) History() []Gesture {
	return s.history
}

// Reset clears the window and the stable gesture.
func (s *Stabilizer) Reset() {
	s.history = s.history[:0]
	s.stable = GestureNone
}

// majority returns the mode of history. Ties go to the gesture that first
// appears earliest in the window.
func majority(history []Gesture) Gesture {
	if len(history) == 0 {
		return GestureNone
	}
	var counts [len(gestureNames)]int
	var order []Gesture
	for _, g := range history {
		if int(g) >= len(counts) {
			continue
		}
		if counts[g] == 0 {
			order = append(order, g)
		}
		counts[g]++
	}
	best, bestCount := GestureNone, 0
	for _, g := range order {
		if counts[g] > bestCount {
			best, bestCount = g, counts[g]
		}
	}
	return best
}
