package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1024, 10*1024*1024))
	assert.NotNil(t, ValidateFileSize(0, 10*1024*1024))
	assert.NotNil(t, ValidateFileSize(-1, 10*1024*1024))
	assert.NotNil(t, ValidateFileSize(11*1024*1024, 10*1024*1024))
}

func TestValidateFileType(t *testing.T) {
	assert.Nil(t, ValidateFileType("photo.png", "image/png"))
	assert.Nil(t, ValidateFileType("DOC.PDF", "application/pdf"))

	// Extension and MIME type must agree.
	assert.NotNil(t, ValidateFileType("photo.png", "image/jpeg"))
	assert.NotNil(t, ValidateFileType("script.exe", "image/png"))
	assert.NotNil(t, ValidateFileType("noext", "image/png"))
	assert.NotNil(t, ValidateFileType("archive.zip", "application/zip"))
}
