package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/engine/model"
)

// meshTopologies lists the topologies in draw order. Every pass draws them in this order.
var meshTopologies = [...]model.Topology{model.TopologyTriangle, model.TopologySegment, model.TopologyPoint}

// Mesh is the tessellation of one model under one representation.
type Mesh struct {
	Model      model.Model
	Primitives []model.Primitive

	// vertices holds the expanded pick vertex stream per topology, built lazily for GPU upload
	vertices map[model.Topology][]byte
	counts   map[model.Topology]int
	once     sync.Once
}

// VertexData returns the marshaled vertex stream of one topology.
//
// Parameters:
//   - t: the topology
//
// Returns:
//   - []byte: the vertex bytes, nil when the mesh has no primitive of that topology
//   - int: the vertex count
func (m *Mesh) VertexData(t model.Topology) ([]byte, int) {
	m.once.Do(func() {
		m.vertices = make(map[model.Topology][]byte, len(meshTopologies))
		m.counts = make(map[model.Topology]int, len(meshTopologies))
		for _, top := range meshTopologies {
			m.vertices[top], m.counts[top] = model.BuildPickVertices(m.Model, m.Primitives, top)
		}
	})
	return m.vertices[t], m.counts[t]
}

type meshKey struct {
	mdl model.Model
	rep model.Representation
}

// meshCache shares tessellations between every object drawing the same model and representation.
type meshCache struct {
	mu     sync.Mutex
	meshes map[meshKey]*Mesh
}

func newMeshCache() *meshCache {
	return &meshCache{meshes: make(map[meshKey]*Mesh)}
}

func (c *meshCache) get(m model.Model, rep model.Representation) *Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := meshKey{mdl: m, rep: rep}
	if mesh, ok := c.meshes[key]; ok {
		return mesh
	}
	mesh := &Mesh{Model: m, Primitives: model.Tessellate(m, rep)}
	c.meshes[key] = mesh
	return mesh
}
