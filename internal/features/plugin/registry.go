package plugin

import (
	"context"
	"sync"
)

// ImporterFunc pulls documents from an external system into the local
// store and reports what it brought in.
type ImporterFunc func(ctx context.Context, config map[string]interface{}) (ImportStats, error)

// PreprocessorFunc inspects a document during ingestion and may request
// a rename, a custom identifier, or an abort.
type PreprocessorFunc func(ctx context.Context, config map[string]interface{}, doc *Document) (PreprocessResult, error)

// PostprocessorFunc reacts to a document lifecycle event.
type PostprocessorFunc func(ctx context.Context, config map[string]interface{}, doc *Document, event EventType) error

// Registry maps full component slugs ("plugin-slug.component-slug") to
// their handlers. Builtin components register at startup; the records in
// Mongo describe them, the registry executes them.
type Registry struct {
	mu             sync.RWMutex
	importers      map[string]ImporterFunc
	preprocessors  map[string]PreprocessorFunc
	postprocessors map[string]PostprocessorFunc
}

func NewRegistry() *Registry {
	return &Registry{
		importers:      make(map[string]ImporterFunc),
		preprocessors:  make(map[string]PreprocessorFunc),
		postprocessors: make(map[string]PostprocessorFunc),
	}
}

func (r *Registry) RegisterImporter(fullSlug string, fn ImporterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.importers[fullSlug] = fn
}

func (r *Registry) RegisterPreprocessor(fullSlug string, fn PreprocessorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preprocessors[fullSlug] = fn
}

func (r *Registry) RegisterPostprocessor(fullSlug string, fn PostprocessorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postprocessors[fullSlug] = fn
}

func (r *Registry) Importer(fullSlug string) (ImporterFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.importers[fullSlug]
	return fn, ok
}

func (r *Registry) Preprocessor(fullSlug string) (PreprocessorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.preprocessors[fullSlug]
	return fn, ok
}

func (r *Registry) Postprocessor(fullSlug string) (PostprocessorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.postprocessors[fullSlug]
	return fn, ok
}
