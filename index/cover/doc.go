// Package cover provides a cover tree backed index. The tree is rebuilt on
// every Build, so it suits read-mostly memories queried through Predict, not
// memories updated by Query between lookups.
package cover
