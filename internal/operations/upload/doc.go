// Package upload implements the upload chunking engine.
//
// A source is split into parts sized by the partsize calculator and each part
// is appended to a remote file in order. Regular files are read through
// memory-mapped windows where the platform allows it; everything else is read
// sequentially into pooled buffers.
package upload
