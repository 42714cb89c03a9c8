// Package logging builds the shared slog logger and standardizes the
// structured field vocabulary used across the suggestion engine.
//
// Components receive loggers via NewComponentLogger so every line carries a
// component attribute; per-attempt fields (image_id, attempt_id, source) ride
// on the context and are applied with WithContext. Console output renders a
// compact single-line format; JSON output is available for ingestion.
package logging
