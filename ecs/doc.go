// Package ecs provides ECS adapters for tinsel's scene events.
//
// The primary adapter is [NewDonburiStore], which bridges scene events
// (state transitions, stable gestures, photo cycling, camera rotation) into a
// [Donburi] world as typed events. Subscribe to [SceneEventType] in your ECS
// systems to receive them, or call [TrackStatus] for a ready-made
// [SceneStatus] component.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//	status := ecs.TrackStatus(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
