package wsdetect

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phanxgames/tinsel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDetectRoundTrip(t *testing.T) {
	src := SourceFunc(func(at time.Duration) []tinsel.Landmark {
		if at < 100*time.Millisecond {
			return nil
		}
		return tinsel.SyntheticHand(tinsel.GesturePinch, 0.4)
	})
	srv := httptest.NewServer(Handler{Source: src})
	defer srv.Close()

	ctx := context.Background()
	det, err := Dial(ctx, wsURL(srv), tinsel.DefaultConfig().Gesture.Capture)
	require.NoError(t, err)
	defer det.Close()

	res, err := det.Detect(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, res.HasHand())

	res, err = det.Detect(ctx, 150*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.HasHand())
	assert.Equal(t, tinsel.GesturePinch, tinsel.DetectGesture(res.Landmarks))
	assert.InDelta(t, 0.4, res.Landmarks[tinsel.Wrist].X, 1e-9)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/none", tinsel.CaptureConfig{})
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(Handler{Source: Script{}})
	defer srv.Close()

	det, err := Dial(context.Background(), wsURL(srv), tinsel.CaptureConfig{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	require.NoError(t, det.Close())
	require.NoError(t, det.Close())

	_, err = det.Detect(context.Background(), 0)
	assert.Error(t, err)
}

func TestStalledReplyBreaksConnection(t *testing.T) {
	src := SourceFunc(func(time.Duration) []tinsel.Landmark {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	srv := httptest.NewServer(Handler{Source: src})
	defer srv.Close()

	det, err := Dial(context.Background(), wsURL(srv), tinsel.CaptureConfig{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	defer det.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = det.Detect(ctx, 0)
	require.ErrorIs(t, err, ErrBroken)
	assert.ErrorIs(t, err, tinsel.ErrDetectorLost)

	_, err = det.Detect(context.Background(), 0)
	assert.ErrorIs(t, err, tinsel.ErrDetectorLost)
}

func TestScriptCycles(t *testing.T) {
	s := Script{
		Gestures: []tinsel.Gesture{tinsel.GestureFist, tinsel.GestureNone, tinsel.GestureOpenPalm},
		Hold:     time.Second,
	}
	assert.Equal(t, tinsel.GestureFist, tinsel.DetectGesture(s.Frame(500*time.Millisecond)))
	assert.Nil(t, s.Frame(1500*time.Millisecond))
	assert.Equal(t, tinsel.GestureOpenPalm, tinsel.DetectGesture(s.Frame(2500*time.Millisecond)))
	assert.Equal(t, tinsel.GestureFist, tinsel.DetectGesture(s.Frame(3500*time.Millisecond)))
}

// TestGestureTaskOverWebSocket runs the full pipeline: task, websocket
// detector, stabilizer and controller.
func TestGestureTaskOverWebSocket(t *testing.T) {
	srv := httptest.NewServer(Handler{Source: Script{
		Gestures: []tinsel.Gesture{tinsel.GestureOpenPalm},
		Hold:     time.Hour,
	}})
	defer srv.Close()

	cfg := tinsel.DefaultConfig().Gesture
	cfg.Interval = 0
	ctrl := tinsel.NewController(tinsel.StateTree, cfg)
	task := tinsel.NewGestureTask(cfg, ctrl, Opener(wsURL(srv)))
	defer task.Close()

	require.NoError(t, task.Start(context.Background()))
	require.Eventually(t, func() bool {
		task.Step()
		return ctrl.State() == tinsel.StateExploding
	}, 5*time.Second, 5*time.Millisecond)
	assert.True(t, task.Available())
}
