package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "operation only",
			err:  NewError("upload", ErrTransfer),
			want: "transfer.upload: transfer: transfer failed",
		},
		{
			name: "file and part",
			err:  NewFileError("download", "file-1", ErrChecksumMismatch).WithPart("3"),
			want: "transfer.download file-1 part 3: transfer: checksum mismatch",
		},
		{
			name: "path",
			err:  NewError("resume", ErrLocalFileMismatch).WithFileID("file-2").WithPath("/tmp/out"),
			want: "transfer.resume file-2 (/tmp/out): transfer: local file does not match remote object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_WithCause(t *testing.T) {
	err := NewFileError("upload", "file-1", ErrTransfer).WithPart("2").WithCause(io.ErrUnexpectedEOF)

	assert.True(t, IsTransfer(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, IsChecksumMismatch(err))

	var target *Error
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "2", target.Part)
}

func TestError_WithCauseNil(t *testing.T) {
	err := NewError("finalize", ErrTransfer).WithCause(nil)
	assert.Equal(t, ErrTransfer, err.Err)
}

func TestError_WithMessage(t *testing.T) {
	err := NewError("download", ErrManifest).WithMessage("part 2 has negative size")

	assert.True(t, IsManifest(err))
	assert.Contains(t, err.Error(), "part 2 has negative size")
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name  string
		check func(error) bool
		err   error
	}{
		{"manifest", IsManifest, ErrManifest},
		{"part integrity", IsPartIntegrity, ErrPartIntegrity},
		{"checksum", IsChecksumMismatch, ErrChecksumMismatch},
		{"local file", IsLocalFileMismatch, ErrLocalFileMismatch},
		{"configuration", IsConfiguration, ErrConfiguration},
		{"transfer", IsTransfer, ErrTransfer},
		{"invalid input", IsInvalidInput, ErrInvalidInput},
		{"not found", IsFileNotFound, ErrFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(NewError("op", tt.err)))
			assert.False(t, tt.check(errors.New("other")))
			assert.False(t, tt.check(nil))
		})
	}
}
