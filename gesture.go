package tinsel

import (
	"fmt"
	"math"
)

// Landmark is one normalized hand keypoint. X and Y are in [0, 1] image
// space with Y down; Z is relative depth.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (a Landmark) dist(b Landmark) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// LandmarkCount is the number of keypoints in one hand detection.
const LandmarkCount = 21

// Landmark indices used by the recognizer.
const (
	Wrist     = 0
	ThumbTip  = 4
	IndexMCP  = 5
	IndexTip  = 8
	MiddleMCP = 9
	MiddleTip = 12
	RingMCP   = 13
	RingTip   = 16
	PinkyMCP  = 17
	PinkyTip  = 20
)

var (
	fingerTips    = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}
	fingerKnuckle = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
)

// Gesture is a single-frame hand classification.
type Gesture uint8

const (
	GestureNone Gesture = iota
	GestureFist
	GestureOpenPalm
	GesturePinch
)

var gestureNames = [...]string{"NONE", "FIST", "OPEN_PALM", "PINCH"}

func (g Gesture) String() string {
	if int(g) < len(gestureNames) {
		return gestureNames[g]
	}
	return fmt.Sprintf("Gesture(%d)", g)
}

// ParseGesture accepts the canonical names and lower-case aliases.
func ParseGesture(name string) (Gesture, error) {
	switch name {
	case "NONE", "none":
		return GestureNone, nil
	case "FIST", "fist":
		return GestureFist, nil
	case "OPEN_PALM", "open", "open_palm":
		return GestureOpenPalm, nil
	case "PINCH", "pinch":
		return GesturePinch, nil
	}
	return GestureNone, fmt.Errorf("unknown gesture %q", name)
}

// DetectGesture classifies one frame with the default thresholds.
func DetectGesture(landmarks []Landmark) Gesture {
	return DefaultConfig().Gesture.Classify(landmarks)
}

// Classify returns the first matching gesture in priority order: PINCH,
// FIST, OPEN_PALM, else NONE. Short or missing landmark sets are NONE.
func (c GestureConfig) Classify(landmarks []Landmark) Gesture {
	if len(landmarks) < LandmarkCount {
		return GestureNone
	}
	if landmarks[ThumbTip].dist(landmarks[IndexTip]) < c.PinchThreshold {
		return GesturePinch
	}

	wrist := landmarks[Wrist]
	folded, extended := 0, 0
	for i := range fingerTips {
		tip := landmarks[fingerTips[i]].dist(wrist)
		knuckle := landmarks[fingerKnuckle[i]].dist(wrist)
		if tip < knuckle {
			folded++
		}
		if tip > knuckle*c.ExtendRatio {
			extended++
		}
	}
	if folded >= c.MinFingers {
		return GestureFist
	}
	if extended >= c.MinFingers {
		return GestureOpenPalm
	}
	return GestureNone
}

// SyntheticHand builds a plausible landmark set that classifies as g with
// the default thresholds, centered horizontally at x. Used to inject
// gestures and in tests.
func SyntheticHand(g Gesture, x float64) []Landmark {
	lm := make([]Landmark, LandmarkCount)
	wrist := Landmark{X: x, Y: 0.8}
	lm[Wrist] = wrist

	offsets := [4]float64{-0.06, -0.02, 0.02, 0.06}
	for i, off := range offsets {
		knuckle := Landmark{X: x + off, Y: 0.6}
		var tip Landmark
		switch g {
		case GestureFist:
			tip = Landmark{X: x + off, Y: 0.7}
		case GestureOpenPalm:
			tip = Landmark{X: x + off*1.5, Y: 0.3}
		case GestureNone, GesturePinch:
			tip = Landmark{X: x + off, Y: 0.56}
		}
		base := fingerKnuckle[i]
		lm[base] = knuckle
		// Two joints between knuckle and tip.
		lm[base+1] = lerpLandmark(knuckle, tip, 1.0/3)
		lm[base+2] = lerpLandmark(knuckle, tip, 2.0/3)
		lm[fingerTips[i]] = tip
	}

	thumbTip := Landmark{X: x - 0.15, Y: 0.55}
	if g == GesturePinch {
		thumbTip = lm[IndexTip]
	}
	thumbBase := Landmark{X: x - 0.08, Y: 0.72}
	lm[1] = thumbBase
	lm[2] = lerpLandmark(thumbBase, thumbTip, 1.0/3)
	lm[3] = lerpLandmark(thumbBase, thumbTip, 2.0/3)
	lm[ThumbTip] = thumbTip
	return lm
}

func lerpLandmark(a, b Landmark, t float64) Landmark {
	return Landmark{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}
