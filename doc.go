// Package thicket renders skinned skeletons and grid distortion effects for
// [Ebitengine].
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := thicket.NewScene()
//	// ... add nodes ...
//	thicket.Run(scene, thicket.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly.
//
// # Scene graph
//
// Every element is a [Node]. Nodes form a tree rooted at [Scene.Root] and
// inherit their parent's transform and opacity. A node draws through its
// [Drawable]: a [SkeletonRenderer], an [AtlasNode], or your own type.
//
//	rig := thicket.NewRig()
//	// ... bones, slots, attachments ...
//	hero := thicket.NewSkeletonNode("hero", rig)
//	scene.Root().AddChild(hero)
//
// # Render queue
//
// Drawing is recorded, not immediate. Each frame every visible node records
// commands into the [FrameContext]'s [RenderQueue]; the queue sorts them by
// [Node.GlobalOrder] and executes them against a [Device]. Consecutive
// triangle commands sharing a texture and blend function are merged into a
// single draw call. Vertex memory comes from a per-layout [VertexBatch] that
// lives for exactly one frame.
//
// # Skeletons
//
// [SkeletonRenderer] draws region and mesh attachments in draw order,
// composing attachment, node, skeleton and slot colors, selecting blend
// functions from the slot's [BlendMode] and the texture's premultiplied
// flag, and clipping through [ClippingAttachment] regions with a [Clipper].
// Two-color tinting uses a dark color per vertex and a dedicated shader.
//
// # Grids
//
// Setting [Node.Grid] to an active [Grid3D] or [TiledGrid3D] captures the
// node's subtree into an offscreen [Texture] and redraws it through a
// distortion mesh. Effects such as [Waves3D] and [TurnOffTiles] animate the
// mesh over time:
//
//	node.RunGridEffect(thicket.NewWaves3D(3, thicket.GridSize{W: 16, H: 12}, 4, 20))
//
// # Tweens and scripts
//
// [TweenPosition], [TweenBoneRotation] and friends build gween-driven
// [TweenGroup] values; hand them to [Scene.Animate] to have the scene
// advance them. [LoadScript] reads a JSON frame script for automated
// screenshots.
//
// # Debugging
//
// [Scene.SetDebugMode] logs per-frame queue statistics to stderr and turns
// on checks for disposed nodes. [SkeletonRenderer] can draw bone, slot,
// mesh and bounds overlays.
//
// [Ebitengine]: https://ebitengine.org
package thicket
