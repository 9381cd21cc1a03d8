package tinsel

import "testing"

func TestSanitizeLabel(t *testing.T) {
	tests := map[string]string{
		"a b/c":      "a_b_c",
		"":           "unlabeled",
		"   ":        "unlabeled",
		"photo-1.v2": "photo-1.v2",
		"ünïcode":    "_n_code",
	}
	for in, want := range tests {
		if got := sanitizeLabel(in); got != want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnpremultiply(t *testing.T) {
	pixels := []byte{
		64, 32, 0, 128,
		10, 20, 30, 255,
		5, 5, 5, 0,
	}
	img := unpremultiply(pixels, 3, 1)
	want := []byte{
		127, 63, 0, 128,
		10, 20, 30, 255,
		5, 5, 5, 0,
	}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Fatalf("Pix = %v, want %v", img.Pix, want)
		}
	}
}

func TestScreenshotQueues(t *testing.T) {
	s := newTestScene(t)
	s.Screenshot("first")
	s.Screenshot("second")
	if len(s.screenshotQueue) != 2 || s.screenshotQueue[1] != "second" {
		t.Errorf("queue = %v", s.screenshotQueue)
	}
}
