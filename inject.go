package tinsel

// defaultHandX is the horizontal position used for injected hands.
const defaultHandX = 0.5

// InjectLandmarks queues one raw landmark frame for the gesture pipeline.
// An empty frame means no hand. Frames are consumed one per Update, bypass
// the detection throttle and work without a detector.
func (s *Scene) InjectLandmarks(landmarks []Landmark) {
	s.gestures.Inject(landmarks)
}

// InjectGesture queues frames frames of a synthetic hand holding g. Use at
// least the stabilizer history length to make g the stable gesture.
func (s *Scene) InjectGesture(g Gesture, frames int) {
	for range max(frames, 1) {
		s.gestures.Inject(SyntheticHand(g, defaultHandX))
	}
}

// InjectHandMove queues a hand holding g moving horizontally from fromX to
// toX over frames frames, in normalized image coordinates. Minimum frames is
// 2 (start and end).
func (s *Scene) InjectHandMove(g Gesture, fromX, toX float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	for i := range frames {
		t := float64(i) / float64(frames-1)
		s.gestures.Inject(SyntheticHand(g, fromX+(toX-fromX)*t))
	}
}

// InjectNoHand queues frames frames without a detected hand.
func (s *Scene) InjectNoHand(frames int) {
	for range max(frames, 1) {
		s.gestures.Inject(nil)
	}
}
