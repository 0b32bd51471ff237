package model

import "sync"

// Source provides access to a BoundedContext instance at the point of use.
//
// Components performing handler lookups accept a Source instead of a
// BoundedContext directly, so the hosting application can choose whether
// the runtime model is shared, rebuilt on every use, or built lazily once.
type Source interface {
	Model() *BoundedContext
}

// SourceFunc is a functional implementation of the Source interface.
type SourceFunc func() *BoundedContext

// Model implements the model.Source interface.
func (fn SourceFunc) Model() *BoundedContext {
	return fn()
}

// Static returns a Source that always yields the provided BoundedContext.
//
// This is the common choice: the model is built once at startup and shared,
// read-only, across every component and call.
func Static(bc *BoundedContext) Source {
	return SourceFunc(func() *BoundedContext {
		return bc
	})
}

// Factory returns a Source that rebuilds the BoundedContext through the
// provided factory function on every use.
//
// Use this when handler instances must not be reused across calls, at the
// cost of re-running the registration code each time.
func Factory(factory func() *BoundedContext) Source {
	return SourceFunc(factory)
}

// Cached returns a Source that builds the BoundedContext through the
// provided factory function on first use, then memoizes the instance for
// every subsequent use.
//
// Only valid under single-instance deployment assumptions, where the
// memoized model cannot go stale. This is the opt-in runtime-model caching
// behavior; prefer Static when the model can be built eagerly.
func Cached(factory func() *BoundedContext) Source {
	var (
		once sync.Once
		bc   *BoundedContext
	)

	return SourceFunc(func() *BoundedContext {
		once.Do(func() {
			bc = factory()
		})

		return bc
	})
}
