package model

import (
	"github.com/chewxy/math32"
)

// NewCube builds an axis-aligned cube centered at the origin with six quad cells.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//
// Returns:
//   - Model: the cube
func NewCube(name string, size float32) Model {
	h := size / 2
	pts := [][3]float32{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	return NewModel(
		WithName(name),
		WithPoints(pts),
		WithPolygons(
			[]uint32{0, 3, 2, 1}, // -z
			[]uint32{4, 5, 6, 7}, // +z
			[]uint32{0, 4, 7, 3}, // -x
			[]uint32{1, 2, 6, 5}, // +x
			[]uint32{0, 1, 5, 4}, // -y
			[]uint32{3, 7, 6, 2}, // +y
		),
	)
}

// NewSphere builds a latitude/longitude sphere centered at the origin with triangle cells.
// Point 0 is the north pole (+Y) and point 1 the south pole.
//
// Parameters:
//   - name: the model name
//   - radius: the sphere radius
//   - thetaResolution: number of longitude subdivisions (minimum 3)
//   - phiResolution: number of latitude subdivisions (minimum 3)
//
// Returns:
//   - Model: the sphere
func NewSphere(name string, radius float32, thetaResolution, phiResolution int) Model {
	thetaResolution = max(thetaResolution, 3)
	phiResolution = max(phiResolution, 3)

	pts := [][3]float32{{0, radius, 0}, {0, -radius, 0}}
	for j := 1; j < phiResolution; j++ {
		phi := math32.Pi * float32(j) / float32(phiResolution)
		for i := 0; i < thetaResolution; i++ {
			theta := 2 * math32.Pi * float32(i) / float32(thetaResolution)
			pts = append(pts, [3]float32{
				radius * math32.Sin(phi) * math32.Cos(theta),
				radius * math32.Cos(phi),
				radius * math32.Sin(phi) * math32.Sin(theta),
			})
		}
	}

	ring := func(j, i int) uint32 {
		return uint32(2 + (j-1)*thetaResolution + (i % thetaResolution))
	}
	var tris []uint32
	for i := 0; i < thetaResolution; i++ {
		tris = append(tris, 0, ring(1, i+1), ring(1, i))
	}
	for j := 1; j < phiResolution-1; j++ {
		for i := 0; i < thetaResolution; i++ {
			a, b := ring(j, i), ring(j, i+1)
			c, d := ring(j+1, i), ring(j+1, i+1)
			tris = append(tris, a, b, d, a, d, c)
		}
	}
	last := phiResolution - 1
	for i := 0; i < thetaResolution; i++ {
		tris = append(tris, 1, ring(last, i), ring(last, i+1))
	}

	return NewModel(WithName(name), WithPoints(pts), WithTriangles(tris))
}

// NewCone builds a cone along +Y centered at the origin: one triangle per side and a single
// polygon cap, so cell 0..resolution-1 are the sides and cell resolution is the base.
//
// Parameters:
//   - name: the model name
//   - radius: the base radius
//   - height: the cone height
//   - resolution: number of sides (minimum 3)
//
// Returns:
//   - Model: the cone
func NewCone(name string, radius, height float32, resolution int) Model {
	resolution = max(resolution, 3)
	pts := [][3]float32{{0, height / 2, 0}}
	base := make([]uint32, 0, resolution)
	for i := 0; i < resolution; i++ {
		theta := 2 * math32.Pi * float32(i) / float32(resolution)
		pts = append(pts, [3]float32{radius * math32.Cos(theta), -height / 2, radius * math32.Sin(theta)})
		base = append(base, uint32(resolution-i))
	}

	sides := make([][]uint32, 0, resolution+1)
	for i := 0; i < resolution; i++ {
		next := (i+1)%resolution + 1
		sides = append(sides, []uint32{0, uint32(next), uint32(i + 1)})
	}
	sides = append(sides, base)
	return NewModel(WithName(name), WithPoints(pts), WithPolygons(sides...))
}

// NewCylinder builds a capped cylinder along +Y centered at the origin with quad sides and
// two polygon caps.
//
// Parameters:
//   - name: the model name
//   - radius: the cylinder radius
//   - height: the cylinder height
//   - resolution: number of sides (minimum 3)
//
// Returns:
//   - Model: the cylinder
func NewCylinder(name string, radius, height float32, resolution int) Model {
	resolution = max(resolution, 3)
	var pts [][3]float32
	for i := 0; i < resolution; i++ {
		theta := 2 * math32.Pi * float32(i) / float32(resolution)
		x, z := radius*math32.Cos(theta), radius*math32.Sin(theta)
		pts = append(pts, [3]float32{x, height / 2, z}, [3]float32{x, -height / 2, z})
	}

	var polys [][]uint32
	top := make([]uint32, 0, resolution)
	bottom := make([]uint32, 0, resolution)
	for i := 0; i < resolution; i++ {
		j := (i + 1) % resolution
		polys = append(polys, []uint32{uint32(2 * i), uint32(2 * j), uint32(2*j + 1), uint32(2*i + 1)})
		top = append(top, uint32(2*(resolution-1-i)))
		bottom = append(bottom, uint32(2*i+1))
	}
	polys = append(polys, top, bottom)
	return NewModel(WithName(name), WithPoints(pts), WithPolygons(polys...))
}
