// Command tagsmith is the operator CLI for the suggestion engine: generate
// and review suggestions, curate vocabulary mappings and taxonomy tags,
// manage model versions, and inspect generation runs.
package main
