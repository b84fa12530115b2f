// Package index defines the search engine abstraction the memory uses for
// its nearest-neighbour lookup. Implementations in this module are an exact
// brute-force scan and a cover tree.
package index
