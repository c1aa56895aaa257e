package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/chewxy/math32"
)

// Scene is the registry of objects drawn into one viewport. It assigns every added object a
// numeric ID, unique within the scene and stable until the object is removed, and enumerates
// the objects that survive frustum culling for a given view-projection matrix.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Count returns the number of objects in the registry.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Add registers an object and assigns its ID. Adding an object that already carries an ID
	// registered in this scene is a no-op that returns the existing ID.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the assigned object ID (never 0)
	Add(obj game_object.GameObject) uint64

	// Get retrieves an object by its ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes an object from the registry and clears its ID.
	//
	// Parameters:
	//   - id: the object's ID
	Remove(id uint64)

	// Clear removes every object. IDs are not reused after a Clear.
	Clear()

	// Objects returns every registered object ordered by ID.
	//
	// Returns:
	//   - []game_object.GameObject: a fresh slice
	Objects() []game_object.GameObject

	// Visible returns the visible objects whose bounds intersect the view frustum, ordered by ID.
	//
	// Parameters:
	//   - viewProj: the column-major view-projection matrix
	//
	// Returns:
	//   - []game_object.GameObject: a fresh slice
	Visible(viewProj [16]float32) []game_object.GameObject

	// Pickables returns the subset of Visible with picking enabled, ordered by ID.
	//
	// Parameters:
	//   - viewProj: the column-major view-projection matrix
	//
	// Returns:
	//   - []game_object.GameObject: a fresh slice
	Pickables(viewProj [16]float32) []game_object.GameObject
}

type scene struct {
	mu *sync.RWMutex

	name            string
	registry        map[uint64]game_object.GameObject
	nextID          uint64
	cullingDisabled bool
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		registry: make(map[uint64]game_object.GameObject),
		nextID:   1,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add registers obj. Caller must hold the write lock.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if id := obj.ID(); id != 0 && s.registry[id] == obj {
		return id
	}
	id := s.nextID
	s.nextID++
	obj.SetID(id)
	s.registry[id] = obj
	return id
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.registry[id]; ok {
		obj.SetID(0)
		delete(s.registry, id)
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.registry {
		obj.SetID(0)
	}
	clear(s.registry)
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(nil)
}

func (s *scene) Visible(viewProj [16]float32) []game_object.GameObject {
	frustum := common.ExtractFrustumFromMatrix(viewProj[:])
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(obj game_object.GameObject) bool {
		return obj.Visible() && (s.cullingDisabled || inFrustum(&frustum, obj))
	})
}

func (s *scene) Pickables(viewProj [16]float32) []game_object.GameObject {
	visible := s.Visible(viewProj)
	out := visible[:0]
	for _, obj := range visible {
		if obj.PickingEnabled() {
			out = append(out, obj)
		}
	}
	return out
}

// sorted collects registry entries accepted by keep (all when nil) ordered by ID.
// Caller must hold the read lock.
func (s *scene) sorted(keep func(game_object.GameObject) bool) []game_object.GameObject {
	out := make([]game_object.GameObject, 0, len(s.registry))
	for _, obj := range s.registry {
		if keep == nil || keep(obj) {
			out = append(out, obj)
		}
	}
	slices.SortFunc(out, func(a, b game_object.GameObject) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

// inFrustum tests the model's bounding sphere of every instance; one hit is enough.
func inFrustum(f *common.Frustum, obj game_object.GameObject) bool {
	mdl := obj.Model()
	c := mdl.Center()
	for i := 0; i < obj.InstanceCount(); i++ {
		m := obj.InstanceMatrix(i)
		wc := common.TransformPoint(m, c[0], c[1], c[2])
		if f.IntersectsSphere([3]float32{wc[0], wc[1], wc[2]}, mdl.BoundingRadius()*maxScale(m)) {
			return true
		}
	}
	return false
}

func maxScale(m []float32) float32 {
	sx := math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])
	return max(sx, sy, sz)
}
