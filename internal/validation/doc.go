// Package validation provides centralized input validation logic.
// This includes file id, local path, and bucket validation.
//
// All user inputs are validated before any local or remote I/O so that
// malformed ids cannot escape the configured key prefix.
package validation
