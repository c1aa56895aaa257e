package game_object

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
)

// PointWorldPosition returns the world-space position of a model point of one instance.
//
// Parameters:
//   - obj: the object owning the point
//   - instance: the glyph instance (0 for plain objects)
//   - point: the point ID
//
// Returns:
//   - [3]float32: the world-space position
//   - bool: false when the point ID is out of range
func PointWorldPosition(obj GameObject, instance int, point uint32) ([3]float32, bool) {
	if int(point) >= obj.PointCount() {
		return [3]float32{}, false
	}
	p := obj.Model().Point(point)
	w := common.TransformPoint(obj.InstanceMatrix(instance), p[0], p[1], p[2])
	return [3]float32{w[0], w[1], w[2]}, true
}

// NearestCellPoint returns the point of a cell closest to a world-space hit position.
// Distances are compared in the instance's model space, then the winner is mapped back to world.
//
// Parameters:
//   - obj: the object owning the cell
//   - instance: the glyph instance (0 for plain objects)
//   - cell: the cell ID
//   - world: the picked world-space position
//
// Returns:
//   - [3]float32: the world position of the nearest cell point
//   - uint32: the nearest point ID
//   - bool: false when the cell ID is out of range or the instance matrix is singular
func NearestCellPoint(obj GameObject, instance int, cell uint32, world [3]float32) ([3]float32, uint32, bool) {
	if int(cell) >= obj.CellCount() {
		return [3]float32{}, 0, false
	}
	m := obj.InstanceMatrix(instance)
	inv := make([]float32, 16)
	if !common.Invert4(inv, m) {
		return [3]float32{}, 0, false
	}
	lp := common.TransformPoint(inv, world[0], world[1], world[2])
	local := [3]float32{lp[0], lp[1], lp[2]}

	mdl := obj.Model()
	pts := mdl.Cell(cell).Points
	best := pts[0]
	bestDist := common.Distance3(mdl.Point(best), local)
	for _, id := range pts[1:] {
		if d := common.Distance3(mdl.Point(id), local); d < bestDist {
			best, bestDist = id, d
		}
	}

	p := mdl.Point(best)
	w := common.TransformPoint(m, p[0], p[1], p[2])
	return [3]float32{w[0], w[1], w[2]}, best, true
}
