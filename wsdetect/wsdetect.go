// Package wsdetect connects the gesture pipeline to an external
// hand-landmark model over a WebSocket. The model process owns the webcam;
// tinsel only exchanges small JSON messages with it.
//
// Protocol, one JSON object per text message:
//
//	client → {"type":"open","width":320,"height":240,"fps":30}
//	server → {"type":"ready"}
//	client → {"type":"detect","at":1234}          (milliseconds, monotonic)
//	server → {"type":"result","hands":[[{"x":..,"y":..,"z":..}, ...21]]}
//	client → {"type":"close"}
//
// At most one hand is used; extra hands are ignored.
package wsdetect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phanxgames/tinsel"
)

// Message types.
const (
	TypeOpen   = "open"
	TypeReady  = "ready"
	TypeDetect = "detect"
	TypeResult = "result"
	TypeClose  = "close"
	TypeError  = "error"
)

// Message is the wire envelope for both directions.
type Message struct {
	Type   string              `json:"type"`
	Width  int                 `json:"width,omitempty"`
	Height int                 `json:"height,omitempty"`
	FPS    int                 `json:"fps,omitempty"`
	At     int64               `json:"at,omitempty"`
	Hands  [][]tinsel.Landmark `json:"hands,omitempty"`
	Error  string              `json:"error,omitempty"`
}

var (
	// ErrProtocol is wrapped when the server sends an unexpected message.
	ErrProtocol = errors.New("wsdetect: protocol error")
	// ErrBroken is wrapped once a read or write failed. It wraps
	// tinsel.ErrDetectorLost so the gesture task reopens the connection.
	ErrBroken = fmt.Errorf("wsdetect: connection broken: %w", tinsel.ErrDetectorLost)
)

// Detector is a tinsel.Detector backed by a WebSocket connection.
type Detector struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	// broken is set once a read or write failed; gorilla connections are
	// unusable after an I/O error.
	broken error
}

var _ tinsel.Detector = (*Detector)(nil)

// Opener returns a tinsel.DetectorOpener that dials url and requests the
// configured capture stream.
func Opener(url string) tinsel.DetectorOpener {
	return func(ctx context.Context, capture tinsel.CaptureConfig) (tinsel.Detector, error) {
		return Dial(ctx, url, capture)
	}
}

// Dial connects to the model process and waits for it to acquire the
// camera.
func Dial(ctx context.Context, url string, capture tinsel.CaptureConfig) (*Detector, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	d := &Detector{conn: conn}
	open := Message{Type: TypeOpen, Width: capture.Width, Height: capture.Height, FPS: capture.FPS}
	var reply Message
	if err := d.roundTrip(ctx, open, &reply); err != nil {
		conn.Close()
		return nil, err
	}
	if reply.Type != TypeReady {
		conn.Close()
		return nil, replyError(reply)
	}
	return d, nil
}

// Detect requests one frame. Cancelling ctx aborts the wait.
func (d *Detector) Detect(ctx context.Context, at time.Duration) (tinsel.DetectionResult, error) {
	var reply Message
	if err := d.roundTrip(ctx, Message{Type: TypeDetect, At: at.Milliseconds()}, &reply); err != nil {
		return tinsel.DetectionResult{}, err
	}
	if reply.Type != TypeResult {
		return tinsel.DetectionResult{}, replyError(reply)
	}
	var res tinsel.DetectionResult
	if len(reply.Hands) > 0 {
		res.Landmarks = reply.Hands[0]
	}
	return res, nil
}

// Close tells the model process to release the camera and closes the
// connection. It is safe to call more than once.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	_ = d.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = d.conn.WriteJSON(Message{Type: TypeClose})
	_ = d.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return d.conn.Close()
}

// roundTrip writes req and reads one reply, honoring ctx for both.
func (d *Detector) roundTrip(ctx context.Context, req Message, reply *Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return net.ErrClosed
	}
	if d.broken != nil {
		return d.broken
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.conn.SetWriteDeadline(deadline)
		_ = d.conn.SetReadDeadline(deadline)
	} else {
		_ = d.conn.SetWriteDeadline(time.Time{})
		_ = d.conn.SetReadDeadline(time.Time{})
	}
	// Unblock a pending read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		_ = d.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := d.conn.WriteJSON(req); err != nil {
		d.broken = fmt.Errorf("%w: write %s: %w", ErrBroken, req.Type, err)
		return d.broken
	}
	if err := d.conn.ReadJSON(reply); err != nil {
		d.broken = fmt.Errorf("%w: read %s reply: %w", ErrBroken, req.Type, err)
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return d.broken
	}
	return nil
}

func replyError(m Message) error {
	if m.Type == TypeError {
		return fmt.Errorf("%w: server: %s", ErrProtocol, m.Error)
	}
	return fmt.Errorf("%w: unexpected %q message", ErrProtocol, m.Type)
}
