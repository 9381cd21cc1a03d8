package ecs

import (
	"github.com/phanxgames/tinsel"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType is the Donburi event type for tinsel scene events.
// Subscribe to this in your ECS systems to receive transitions, gestures,
// photo cycling and camera rotation requests.
var SceneEventType = events.NewEventType[tinsel.SceneEvent]()

// SceneStatus is a component summarizing scene activity, kept current by
// TrackStatus.
type SceneStatus struct {
	State       tinsel.SceneState
	Transitions int
	LastGesture tinsel.Gesture
	Photo       int
	Photos      int
	Rotation    float64
}

// Status is the component type holding SceneStatus.
var Status = donburi.NewComponentType[SceneStatus]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Scene events are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) tinsel.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event tinsel.SceneEvent) {
	SceneEventType.Publish(s.world, event)
}

// TrackStatus creates an entity carrying a SceneStatus component and
// subscribes it to scene events. The component updates whenever the world's
// events are processed.
func TrackStatus(world donburi.World) donburi.Entity {
	entity := world.Create(Status)
	SceneEventType.Subscribe(world, func(w donburi.World, e tinsel.SceneEvent) {
		if !w.Valid(entity) {
			return
		}
		status := Status.Get(w.Entry(entity))
		applyEvent(status, e)
	})
	return entity
}

func applyEvent(status *SceneStatus, e tinsel.SceneEvent) {
	switch e.Type {
	case tinsel.EventTransition:
		status.State = e.To
		status.Transitions++
	case tinsel.EventGesture:
		status.LastGesture = e.Gesture
	case tinsel.EventNextPhoto:
		status.Photo = e.Photo
	case tinsel.EventPhotos:
		status.Photos = e.Photo
	case tinsel.EventRotate:
		status.Rotation += e.Delta
	}
}
