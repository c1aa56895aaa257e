package game_object

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithName sets the display name of the GameObject.
//
// Parameters:
//   - name: the object name
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the name
func WithName(name string) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.name = name
	}
}

// WithModel sets the Model for this GameObject.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Model
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mdl = m
	}
}

// WithRepresentation sets how the model's cells are rasterized.
//
// Parameters:
//   - rep: surface, wireframe, or points
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the representation
func WithRepresentation(rep model.Representation) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rep = rep
	}
}

// WithPointSize sets the pixel size of rasterized points. Values below 1 are raised to 1.
//
// Parameters:
//   - size: the point size in pixels
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the point size
func WithPointSize(size float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.pointSize = max(size, 1)
	}
}

// WithColor sets the initial display color.
//
// Parameters:
//   - c: the display color
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the color
func WithColor(c common.Color) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.color = c
	}
}

// WithVisible sets whether the object is drawn.
//
// Parameters:
//   - visible: true to draw the object
//
// Returns:
//   - GameObjectBuilderOption: functional option to set visibility
func WithVisible(visible bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.visible.Store(visible)
	}
}

// WithPickingEnabled sets whether the object takes part in picking passes.
//
// Parameters:
//   - enabled: false to make the object invisible to the selector
//
// Returns:
//   - GameObjectBuilderOption: functional option to set pickability
func WithPickingEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.picking.Store(enabled)
	}
}

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = [3]float32{x, y, z}
	}
}

// WithScale sets the initial scale.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = [3]float32{sx, sy, sz}
	}
}

// WithRotation sets the initial Euler rotation in radians.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = [3]float32{rx, ry, rz}
	}
}

// WithGlyphSource turns the object into a glyph: one instance of the model is placed at every
// point of source, each with the given uniform scale. The instance index is what the selector
// reports as the composite ID.
//
// Parameters:
//   - source: the model whose points position the instances
//   - scale: the initial uniform scale of every instance
//
// Returns:
//   - GameObjectBuilderOption: functional option that adds the glyph instances
func WithGlyphSource(source model.Model, scale float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		n := source.PointCount()
		obj.instanceOffsets = make([][3]float32, n)
		obj.instanceScales = make([]float32, n)
		for i := 0; i < n; i++ {
			obj.instanceOffsets[i] = source.Point(uint32(i))
			obj.instanceScales[i] = scale
		}
	}
}
