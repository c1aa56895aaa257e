package loader

import (
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel pre-populates the model cache.
//
// Parameters:
//   - key: the cache key for the model
//   - m: the model to cache
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithModel(key string, m model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = m
	}
}

// WithMeshName restricts imports to glTF meshes with the given name.
//
// Parameters:
//   - name: the mesh name, "" imports every mesh
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithMeshName(name string) LoaderBuilderOption {
	return func(l *loader) {
		l.meshName = name
	}
}
