package scene

import (
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
)

// DemoGlyphScale is the instance scale of the demo glyphs at rest.
const DemoGlyphScale float32 = 0.5

// NewPickingDemo builds the scene the picking demos show in every tile: a sphere at the
// origin surrounded by a cube, a sphere drawn as points, a cone, a cylinder carrying one
// sphere glyph per point, two polylines and an object mixing a vertex, a line and a triangle.
//
// Parameters:
//   - name: the scene name
//   - theta, phi: the resolution of the center sphere
//
// Returns:
//   - Scene: the scene, objects added in the order listed above
func NewPickingDemo(name string, theta, phi int) Scene {
	sphere := game_object.NewGameObject(
		game_object.WithName("sphere"),
		game_object.WithModel(model.NewSphere("sphere", 0.5, theta, phi)),
	)
	cube := game_object.NewGameObject(
		game_object.WithName("cube"),
		game_object.WithModel(model.NewCube("cube", 1)),
		game_object.WithPosition(-1, 0, 0),
	)
	points := game_object.NewGameObject(
		game_object.WithName("sphere points"),
		game_object.WithModel(model.NewSphere("sphere points", 0.6, 15, 15)),
		game_object.WithRepresentation(model.RepresentationPoints),
		game_object.WithPointSize(6),
		game_object.WithPosition(0, -1, 0),
	)
	cone := game_object.NewGameObject(
		game_object.WithName("cone"),
		game_object.WithModel(model.NewCone("cone", 0.5, 1, 20)),
		game_object.WithPosition(1, 0, 0),
	)
	glyphs := game_object.NewGameObject(
		game_object.WithName("cylinder glyphs"),
		game_object.WithModel(model.NewSphere("glyph", 0.25, 8, 8)),
		game_object.WithGlyphSource(model.NewCylinder("cylinder", 0.4, 0.6, 10), DemoGlyphScale),
		game_object.WithRotation(0, 0, 1.5707964),
		game_object.WithPosition(0, 1, 0),
	)
	polylines := game_object.NewGameObject(
		game_object.WithName("polylines"),
		game_object.WithModel(model.NewModel(
			model.WithName("polylines"),
			model.WithPoints([][3]float32{
				{-1, 2, 0}, {0, 2, 0}, {0, 1, 0}, {-1, 1, 0},
				{1, 2, 0}, {1, 1, 0}, {2, 1.5, 0},
			}),
			model.WithLines([]uint32{0, 1, 2, 3, 0}, []uint32{4, 5, 6, 4}),
		)),
	)
	mixed := game_object.NewGameObject(
		game_object.WithName("mixed primitives"),
		game_object.WithPointSize(6),
		game_object.WithModel(model.NewModel(
			model.WithName("mixed primitives"),
			model.WithPoints([][3]float32{
				{1, 0.75, 0}, {2, 1, 0}, {2, 0.75, 0}, {1.5, 1, 0}, {1, 0.5, 0}, {2, 0.5, 0},
			}),
			model.WithVertices(0),
			model.WithLines([]uint32{1, 2}),
			model.WithPolygons([]uint32{3, 4, 5}),
		)),
	)
	return NewScene(name, WithObjects(sphere, cube, points, cone, glyphs, polylines, mixed))
}
