package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

// maxNodeDepth bounds node hierarchy traversal so a cyclic document cannot recurse forever.
const maxNodeDepth = 64

var errNoGeometry = errors.New("document has no mesh geometry")

// geometry accumulates transformed points and cells over every imported primitive.
type geometry struct {
	points   [][3]float32
	vertices []uint32
	lines    [][]uint32
	polygons [][]uint32
}

// collect walks the default scene, or every mesh when the document has no scenes.
func (g *geometry) collect(p *gltfParser, meshName string) error {
	doc := p.document
	identity := make([]float32, 16)
	common.Identity(identity)

	if len(doc.Scenes) == 0 {
		for i := range doc.Meshes {
			if err := g.addMesh(p, i, identity, meshName); err != nil {
				return err
			}
		}
	} else {
		sceneIndex := 0
		if doc.Scene != nil {
			sceneIndex = *doc.Scene
		}
		if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
			return fmt.Errorf("default scene %d out of range", sceneIndex)
		}
		for _, n := range doc.Scenes[sceneIndex].Nodes {
			if err := g.addNode(p, n, identity, meshName, 0); err != nil {
				return err
			}
		}
	}
	if len(g.points) == 0 {
		return errNoGeometry
	}
	return nil
}

func (g *geometry) addNode(p *gltfParser, index int, parent []float32, meshName string, depth int) error {
	doc := p.document
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d", index, maxNodeDepth)
	}
	node := &doc.Nodes[index]
	world := make([]float32, 16)
	common.Mul4(world, parent, nodeMatrix(node))

	if node.Mesh != nil {
		if err := g.addMesh(p, *node.Mesh, world, meshName); err != nil {
			return fmt.Errorf("node %d: %w", index, err)
		}
	}
	for _, child := range node.Children {
		if err := g.addNode(p, child, world, meshName, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (g *geometry) addMesh(p *gltfParser, index int, world []float32, meshName string) error {
	doc := p.document
	if index < 0 || index >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", index)
	}
	mesh := &doc.Meshes[index]
	if meshName != "" && mesh.Name != meshName {
		return nil
	}
	for i := range mesh.Primitives {
		if err := g.addPrimitive(p, &mesh.Primitives[i], world); err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", index, i, err)
		}
	}
	return nil
}

func (g *geometry) addPrimitive(p *gltfParser, prim *gltfPrimitive, world []float32) error {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return errors.New("primitive has no POSITION attribute")
	}
	positions, err := p.readVec3(posIndex)
	if err != nil {
		return err
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = p.readIndices(*prim.Indices); err != nil {
			return err
		}
		for _, idx := range indices {
			if int(idx) >= len(positions) {
				return fmt.Errorf("index %d exceeds %d positions", idx, len(positions))
			}
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	base := uint32(len(g.points))
	for _, pos := range positions {
		t := common.TransformPoint(world, pos[0], pos[1], pos[2])
		g.points = append(g.points, [3]float32{t[0], t[1], t[2]})
	}
	at := func(i int) uint32 { return base + indices[i] }

	mode := gltfModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	switch mode {
	case gltfModePoints:
		for i := range indices {
			g.vertices = append(g.vertices, at(i))
		}
	case gltfModeLines:
		for i := 0; i+1 < len(indices); i += 2 {
			g.lines = append(g.lines, []uint32{at(i), at(i + 1)})
		}
	case gltfModeLineStrip, gltfModeLineLoop:
		if len(indices) < 2 {
			return nil
		}
		line := make([]uint32, 0, len(indices)+1)
		for i := range indices {
			line = append(line, at(i))
		}
		if mode == gltfModeLineLoop {
			line = append(line, at(0))
		}
		g.lines = append(g.lines, line)
	case gltfModeTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			g.polygons = append(g.polygons, []uint32{at(i), at(i + 1), at(i + 2)})
		}
	case gltfModeTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				g.polygons = append(g.polygons, []uint32{at(i), at(i + 1), at(i + 2)})
			} else {
				g.polygons = append(g.polygons, []uint32{at(i + 1), at(i), at(i + 2)})
			}
		}
	case gltfModeTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			g.polygons = append(g.polygons, []uint32{at(0), at(i), at(i + 1)})
		}
	default:
		return fmt.Errorf("unsupported primitive mode %d", mode)
	}
	return nil
}

// nodeMatrix returns the column-major local transform of a node: its matrix, or T * R * S.
func nodeMatrix(n *gltfNode) []float32 {
	m := make([]float32, 16)
	if n.Matrix != nil {
		copy(m, n.Matrix[:])
		return m
	}
	common.Identity(m)
	if n.Rotation != nil {
		x, y, z, w := n.Rotation[0], n.Rotation[1], n.Rotation[2], n.Rotation[3]
		m[0], m[1], m[2] = 1-2*(y*y+z*z), 2*(x*y+z*w), 2*(x*z-y*w)
		m[4], m[5], m[6] = 2*(x*y-z*w), 1-2*(x*x+z*z), 2*(y*z+x*w)
		m[8], m[9], m[10] = 2*(x*z+y*w), 2*(y*z-x*w), 1-2*(x*x+y*y)
	}
	if n.Scale != nil {
		for col := 0; col < 3; col++ {
			for row := 0; row < 3; row++ {
				m[col*4+row] *= n.Scale[col]
			}
		}
	}
	if n.Translation != nil {
		m[12], m[13], m[14] = n.Translation[0], n.Translation[1], n.Translation[2]
	}
	return m
}
