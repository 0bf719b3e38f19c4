package validation

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

const (
	maxFileIDLength = 1024
	maxNameLength   = 1024
)

var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*\/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)

// ValidateFileID validates a remote file id. Ids become part of object keys,
// so traversal sequences and control characters are rejected.
func ValidateFileID(fileID string) error {
	if fileID == "" {
		return errors.NewError("validateFileID", errors.ErrInvalidInput).
			WithMessage("file id cannot be empty")
	}

	if len(fileID) > maxFileIDLength {
		return errors.NewError("validateFileID", errors.ErrInvalidInput).
			WithFileID(fileID[:32] + "...").
			WithMessage("file id cannot exceed 1024 characters")
	}

	if hasPathTraversal(fileID) {
		return errors.NewError("validateFileID", errors.ErrInvalidInput).
			WithFileID(fileID).
			WithMessage("file id cannot contain path traversal sequences")
	}

	if hasControlCharacters(fileID) {
		return errors.NewError("validateFileID", errors.ErrInvalidInput).
			WithMessage("file id cannot contain control characters")
	}

	return nil
}

// ValidateLocalPath validates a local source or destination path.
func ValidateLocalPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewError("validateLocalPath", errors.ErrInvalidInput).
			WithMessage("path cannot be empty")
	}

	if hasControlCharacters(path) {
		return errors.NewError("validateLocalPath", errors.ErrInvalidInput).
			WithMessage("path cannot contain control characters")
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return errors.NewError("validateLocalPath", errors.ErrInvalidInput).
			WithPath(path).
			WithMessage("path must name a file, not a directory")
	}

	return nil
}

// ValidateName validates the display name given to a new remote file.
// An empty name is allowed.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return errors.NewError("validateName", errors.ErrInvalidInput).
			WithMessage("name cannot exceed 1024 characters")
	}

	for _, char := range name {
		if !unicode.IsPrint(char) {
			return errors.NewError("validateName", errors.ErrInvalidInput).
				WithMessage("name can only contain printable characters")
		}
	}

	return nil
}

// ValidateContentType validates that a content type is safe and valid
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil // detected at upload time
	}

	if !mimePattern.MatchString(contentType) {
		return errors.NewError("validateContentType", errors.ErrInvalidInput).
			WithMessage("content type must be a valid MIME type")
	}

	// Prevent potentially dangerous content types
	dangerousTypes := []string{
		"application/x-shockwave-flash",
		"application/java-archive",
		"application/x-java-archive",
	}

	contentTypeLower := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, dangerous := range dangerousTypes {
		if contentTypeLower == dangerous {
			return errors.NewError("validateContentType", errors.ErrInvalidInput).
				WithMessage("content type is not allowed for security reasons")
		}
	}

	return nil
}

// ValidateKeyPrefix validates the object key prefix a remote stores files under.
// An empty prefix is allowed.
func ValidateKeyPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}

	if hasPathTraversal(prefix) {
		return errors.NewError("validateKeyPrefix", errors.ErrInvalidInput).
			WithMessage("key prefix cannot contain path traversal sequences")
	}

	// leave room for the file id and manifest suffix within the 1024 byte key limit
	if len(prefix) > 512 {
		return errors.NewError("validateKeyPrefix", errors.ErrInvalidInput).
			WithMessage("key prefix cannot exceed 512 characters")
	}

	if hasControlCharacters(prefix) {
		return errors.NewError("validateKeyPrefix", errors.ErrInvalidInput).
			WithMessage("key prefix cannot contain control characters")
	}

	return nil
}

// ValidateBucketName validates that a bucket name is DNS-compliant according to AWS S3 rules.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return bucketError("bucket name cannot be empty")
	}

	// Bucket names must be between 3 and 63 characters long
	if len(bucket) < 3 || len(bucket) > 63 {
		return bucketError("bucket name must be between 3 and 63 characters long")
	}

	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return bucketError("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	if bucket[0] == '-' || bucket[0] == '.' || bucket[len(bucket)-1] == '-' || bucket[len(bucket)-1] == '.' {
		return bucketError("bucket name cannot start or end with a hyphen or dot")
	}

	if isIPAddress(bucket) {
		return bucketError("bucket name cannot be formatted as an IP address")
	}

	if strings.Contains(bucket, "..") {
		return bucketError("bucket name cannot contain two adjacent periods")
	}

	return nil
}

func bucketError(msg string) error {
	return errors.NewError("validateBucketName", errors.ErrInvalidInput).WithMessage(msg)
}

// isValidBucketChar checks if a character is valid in a bucket name
func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress checks if a string is formatted as an IP address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if len(part) == 0 {
			return true
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}

// hasPathTraversal checks for traversal or absolute paths in key components
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "/") || strings.HasPrefix(cleaned, "\\") {
		return true
	}

	// Windows-style absolute paths
	if len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/') {
		return true
	}

	return false
}

// hasControlCharacters checks for control characters
func hasControlCharacters(s string) bool {
	for _, char := range s {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
