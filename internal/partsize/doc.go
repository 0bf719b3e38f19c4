// Package partsize derives the chunk size used to split an object into parts.
package partsize
