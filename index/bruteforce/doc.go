// Package bruteforce provides an exact index that answers top-k queries by
// scanning every key. It is the default search engine for the memory.
package bruteforce
