// Package taxonomy canonicalizes tag identifiers through alias chains and
// derives parent-tag suggestions via inheritance.
//
// Aliases form chains that must terminate at a tag with no alias target
// within a bounded number of hops; a chain that exceeds the cap is reported
// as a CycleError and dropped without affecting sibling candidates. A
// resolved tag with a parent additionally yields a decayed, single-hop
// parent suggestion when its confidence clears the propagation threshold.
package taxonomy
