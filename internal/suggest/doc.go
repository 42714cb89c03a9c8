// Package suggest filters and merges tag candidates into the final
// suggestion set for an image.
//
// The confidence filter applies a static (source, category) threshold table.
// The merge engine then collapses surviving candidates to one per
// (image, canonical tag): highest confidence wins, exact ties fall to the
// configured source priority order. Merge output never depends on the order
// candidates arrive in.
package suggest
