// Package memory implements a fixed-capacity associative key-value memory
// for one-shot learning. Each slot holds a unit-norm key, an integer label
// and an age. A query retrieves the top-k most similar keys, predicts the
// label of the nearest one with a softmax confidence over the top-k scores,
// optionally computes a margin hinge loss, and then rewrites the store:
// correct matches blend the query into their key, misses overwrite the slots
// with the largest noise-perturbed age.
//
// A Memory is not safe for concurrent use; callers issue one Predict or
// Query at a time.
package memory
