// Package predict is the boundary to external classifier services.
//
// Each configured source implements Source. HTTPSource talks to a classifier
// over JSON HTTP with bounded retry. The Catalog materializes sources from
// configuration plus the active model registry entries and swaps the set
// atomically on reload. The Dispatcher fans an image out to all sources with
// per-source deadlines; one slow or broken source degrades the result set
// instead of failing it.
package predict
