package validation

import (
	"strings"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

type testCase struct {
	name      string
	input     string
	wantError bool
	errMsg    string
}

func run(t *testing.T, fn func(string) error, tests []testCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fn(tt.input)
			if !tt.wantError {
				if err != nil {
					t.Errorf("%q: expected no error, got %q", tt.input, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("%q: expected error, got nil", tt.input)
			}
			if !errors.IsInvalidInput(err) {
				t.Errorf("%q: error %q is not ErrInvalidInput", tt.input, err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("%q: error = %q, want to contain %q", tt.input, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateFileID(t *testing.T) {
	run(t, ValidateFileID, []testCase{
		{"ksuid", "file-2HbR6uCcFdj0xUoBzLaGxwRmmCq", false, ""},
		{"numeric", "12345", false, ""},
		{"nested", "team/file-1", false, ""},
		{"empty", "", true, "file id cannot be empty"},
		{"too_long", strings.Repeat("a", 1025), true, "cannot exceed 1024 characters"},
		{"traversal", "../secret", true, "path traversal"},
		{"embedded_traversal", "a/../../b", true, "path traversal"},
		{"absolute", "/etc/passwd", true, "path traversal"},
		{"windows_absolute", "C:\\Windows", true, "path traversal"},
		{"control", "file\x00id", true, "control characters"},
		{"del", "file\x7fid", true, "control characters"},
	})
}

func TestValidateLocalPath(t *testing.T) {
	run(t, ValidateLocalPath, []testCase{
		{"relative", "out.bin", false, ""},
		{"absolute", "/tmp/out.bin", false, ""},
		{"parent", "../out.bin", false, ""},
		{"empty", "", true, "path cannot be empty"},
		{"blank", "   ", true, "path cannot be empty"},
		{"directory", "/tmp/", true, "must name a file"},
		{"control", "out\n.bin", true, "control characters"},
	})
}

func TestValidateName(t *testing.T) {
	run(t, ValidateName, []testCase{
		{"empty", "", false, ""},
		{"simple", "report.pdf", false, ""},
		{"unicode", "文件名.txt", false, ""},
		{"spaces", "my report.pdf", false, ""},
		{"too_long", strings.Repeat("n", 1025), true, "cannot exceed 1024 characters"},
		{"newline", "a\nb", true, "printable characters"},
	})
}

func TestValidateContentType(t *testing.T) {
	run(t, ValidateContentType, []testCase{
		{"empty", "", false, ""},
		{"octet_stream", "application/octet-stream", false, ""},
		{"with_charset", "text/plain; charset=utf-8", false, ""},
		{"vendor", "application/vnd.ms-excel", false, ""},
		{"no_slash", "textplain", true, "valid MIME type"},
		{"injection", "text/plain\r\nX-Evil: 1", true, "valid MIME type"},
		{"flash", "application/x-shockwave-flash", true, "not allowed"},
		{"jar_uppercase", "Application/Java-Archive", true, "not allowed"},
	})
}

func TestValidateKeyPrefix(t *testing.T) {
	run(t, ValidateKeyPrefix, []testCase{
		{"empty", "", false, ""},
		{"simple", "uploads/", false, ""},
		{"traversal", "uploads/../", true, "path traversal"},
		{"absolute", "/uploads", true, "path traversal"},
		{"too_long", strings.Repeat("p", 513), true, "cannot exceed 512 characters"},
		{"control", "up\tloads", true, "control characters"},
	})
}

func TestValidateBucketName(t *testing.T) {
	run(t, ValidateBucketName, []testCase{
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},
		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "between 3 and 63 characters"},
		{"too_long", strings.Repeat("a", 64), true, "between 3 and 63 characters"},
		{"starts_with_hyphen", "-bucket", true, "cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", true, "cannot start or end with a hyphen or dot"},
		{"uppercase", "MyBucket", true, "lowercase letters"},
		{"underscore", "my_bucket", true, "lowercase letters"},
		{"ip_address", "192.168.1.1", true, "IP address"},
		{"adjacent_dots", "my..bucket", true, "adjacent periods"},
	})
}

func BenchmarkValidateFileID(b *testing.B) {
	ids := []string{
		"file-2HbR6uCcFdj0xUoBzLaGxwRmmCq",
		"folder/subfolder/deep/nested/file",
		"unicode-文件名",
	}

	for _, id := range ids {
		b.Run("valid_"+id, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = ValidateFileID(id)
			}
		})
	}
}
