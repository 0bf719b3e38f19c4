// Package operations contains the transfer engines.
// The download engine resumes and verifies parts fetched from a PartSource;
// the upload engine splits a local source into parts appended to a PartSink.
//
// Each engine is isolated into its own subpackage for better organization
// and testability.
package operations
