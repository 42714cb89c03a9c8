// Package vocab translates model-specific label vocabularies into taxonomy
// tag identifiers.
//
// Each model source speaks its own vocabulary. Mappings live in the store,
// keyed by (source, normalized label): a mapping may point at a tag with a
// confidence multiplier, or at nothing to mark the label as deliberately
// ignored. Labels without any mapping row are dropped and counted in the
// unmapped-label table so curators can extend the vocabulary.
package vocab
