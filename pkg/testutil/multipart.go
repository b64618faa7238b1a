package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// MultipartBuilder assembles multipart/form-data request bodies for
// intake form tests.
type MultipartBuilder struct {
	t      *testing.T
	buf    bytes.Buffer
	writer *multipart.Writer
}

// NewMultipartBuilder creates an empty multipart form body.
func NewMultipartBuilder(t *testing.T) *MultipartBuilder {
	t.Helper()
	b := &MultipartBuilder{t: t}
	b.writer = multipart.NewWriter(&b.buf)
	return b
}

// Field appends a plain text form field.
func (b *MultipartBuilder) Field(name, value string) *MultipartBuilder {
	b.t.Helper()
	require.NoError(b.t, b.writer.WriteField(name, value), "failed to write form field %q", name)
	return b
}

// JSONField appends a form field whose value is the JSON encoding of v.
func (b *MultipartBuilder) JSONField(name string, v any) *MultipartBuilder {
	b.t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(b.t, err, "failed to marshal form field %q", name)
	return b.Field(name, string(raw))
}

// File appends a file part with an explicit content type.
func (b *MultipartBuilder) File(field, filename, contentType string, content []byte) *MultipartBuilder {
	b.t.Helper()
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition",
		`form-data; name="`+escapeQuotes(field)+`"; filename="`+escapeQuotes(filename)+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := b.writer.CreatePart(hdr)
	require.NoError(b.t, err, "failed to create file part %q", field)
	_, err = part.Write(content)
	require.NoError(b.t, err, "failed to write file part %q", field)
	return b
}

// Request finalizes the body and returns a request with the multipart
// content type set.
func (b *MultipartBuilder) Request(method, path string) *http.Request {
	b.t.Helper()
	require.NoError(b.t, b.writer.Close(), "failed to finalize multipart body")
	req := httptest.NewRequest(method, path, bytes.NewReader(b.buf.Bytes()))
	req.Header.Set("Content-Type", b.writer.FormDataContentType())
	return req
}

func escapeQuotes(s string) string {
	r := strings.NewReplacer("\\", "\\\\", `"`, "\\\"")
	return r.Replace(s)
}
