package smtp

import (
	"testing"

	"github.com/bike-resale-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_PlainText(t *testing.T) {
	msg, err := buildMessage("noreply@example.com", domain.Email{To: "a@b.com", Subject: "OTP", Text: "123456"})
	require.NoError(t, err)
	s := string(msg)
	assert.Contains(t, s, "To: a@b.com\r\n")
	assert.Contains(t, s, "Subject: OTP\r\n")
	assert.Contains(t, s, "Content-Type: text/plain; charset=UTF-8\r\n\r\n123456")
}

func TestBuildMessage_HTMLIsMultipart(t *testing.T) {
	msg, err := buildMessage("noreply@example.com", domain.Email{To: "a@b.com", Subject: "Hi", Text: "hello", HTML: "<p>hello</p>"})
	require.NoError(t, err)
	s := string(msg)
	assert.Contains(t, s, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, s, "text/html; charset=UTF-8")
	assert.Contains(t, s, "<p>hello</p>")
}
