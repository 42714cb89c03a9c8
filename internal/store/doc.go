// Package store persists the suggestion engine's state in SQLite: the tag
// taxonomy, curator-maintained vocabulary mappings, suggestion rows with their
// review lifecycle, tag applications, model version records, and
// operator-facing generation runs.
//
// Schema changes ship as ordered migration files embedded from migrations/;
// Open applies any that have not run yet. The unique index on
// suggestions(image_id, tag_id) is the single concurrency-safety mechanism
// against duplicate suggestions: writers insert with ON CONFLICT DO NOTHING
// and treat collisions as success.
//
// Treat this package as the single source of truth for persistence semantics;
// when you add statuses or columns, add a migration and extend the scanners.
package store
