package wsdetect

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phanxgames/tinsel"
)

// Source produces landmark frames for a Handler. Frame returns nil when no
// hand is visible at the given time.
type Source interface {
	Frame(at time.Duration) []tinsel.Landmark
}

// SourceFunc adapts a function to Source.
type SourceFunc func(at time.Duration) []tinsel.Landmark

// Frame implements Source.
func (f SourceFunc) Frame(at time.Duration) []tinsel.Landmark {
	return f(at)
}

// Script is a Source that replays a fixed sequence of gestures, each held
// for Hold, then repeats. The hand sweeps horizontally once per cycle.
type Script struct {
	Gestures []tinsel.Gesture
	Hold     time.Duration
}

// Frame implements Source.
func (s Script) Frame(at time.Duration) []tinsel.Landmark {
	if len(s.Gestures) == 0 || s.Hold <= 0 {
		return nil
	}
	cycle := s.Hold * time.Duration(len(s.Gestures))
	pos := at % cycle
	g := s.Gestures[int(pos/s.Hold)]
	if g == tinsel.GestureNone {
		return nil
	}
	x := 0.3 + 0.4*float64(pos)/float64(cycle)
	return tinsel.SyntheticHand(g, x)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the detector protocol from a Source. It stands in for the
// model process in demos and tests.
type Handler struct {
	Source Source
}

// ServeHTTP implements http.Handler.
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[wsdetect] upgrade error:", err)
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("[wsdetect] read error:", err)
			}
			return
		}
		var reply Message
		switch msg.Type {
		case TypeOpen:
			log.Printf("[wsdetect] capture %dx%d@%d requested", msg.Width, msg.Height, msg.FPS)
			reply = Message{Type: TypeReady}
		case TypeDetect:
			reply = Message{Type: TypeResult}
			if lm := h.Source.Frame(time.Duration(msg.At) * time.Millisecond); len(lm) > 0 {
				reply.Hands = [][]tinsel.Landmark{lm}
			}
		case TypeClose:
			return
		default:
			reply = Message{Type: TypeError, Error: "unknown message " + msg.Type}
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Println("[wsdetect] write error:", err)
			return
		}
	}
}
