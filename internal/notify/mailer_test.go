package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmationBody(t *testing.T) {
	body := confirmationBody("The Photo Album", "album@example.com",
		"We received your Image. Its URL is s3://images/photo.JPG")

	assert.Contains(t, body, "<b>The Photo Album</b>")
	assert.Contains(t, body, "<b>album@example.com</b>")
	assert.Contains(t, body, "s3://images/photo.JPG")
}

func TestRejectionBody(t *testing.T) {
	body := rejectionBody("document.pdf", "Unsupported file type")

	assert.Contains(t, body, "File Rejection Notice")
	assert.Contains(t, body, "<b>document.pdf</b>")
	assert.Contains(t, body, "<b>Unsupported file type</b>")
}
