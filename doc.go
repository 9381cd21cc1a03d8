// Package tinsel simulates and renders an interactive particle Christmas
// tree that assembles, explodes into drifting debris, reassembles and
// presents photos, driven by buttons or webcam hand gestures.
//
// # Quick start
//
//	scene, err := tinsel.NewScene(tinsel.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	photos, _ := tinsel.LoadPhotos(paths)
//	scene.SetPhotos(photos)
//	tinsel.Run(scene, tinsel.RunConfig{Title: "Tree", Width: 1280, Height: 720, Controls: true})
//
// # Pipeline
//
// Each tick runs, in order: the gesture task (detector frame → [Gesture] →
// [Stabilizer] → [Controller]), camera easing, one [Simulator] step over the
// whole [Store], then presentation. Only the simulator writes particle
// motion; presentation layers read through [StoreView].
//
// # Scene states
//
// [StateTree] springs every particle to its target and slowly turns the
// tree. [StateExploding] bursts resting particles outward and lets them
// drift. [StateReassembling] springs back and promotes itself to
// [StateTree] once every particle is home. [StatePhotoView] pulls one
// photo in front of the camera, chosen by [FocusPolicy].
//
// # Gestures
//
// FIST assembles the tree, OPEN_PALM explodes it (see [OpenPalmPolicy]) and
// PINCH enters photo view or cycles photos. Horizontal hand motion rotates
// the camera while exploding. Detection runs behind the [Detector]
// interface; the wsdetect package streams landmarks from an external model
// process. Without a detector the scene runs with keyboard or UI controls.
//
// # Testing
//
// [Scene.InjectGesture] and [Scene.InjectLandmarks] queue synthetic hand
// frames that bypass the detector. [LoadTestScript] sequences them with
// state expectations and screenshots.
package tinsel
