package tinify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"solidum/pkg/apierror"
	"solidum/pkg/testutil"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) newClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)
	c := NewClient("test-key")
	c.baseURL = srv.URL + "/shrink"
	return c, srv
}

func (s *ClientSuite) TestCompress() {
	compressed := []byte{0xFF, 0xD8, 0xFF, 0x01}

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("POST /shrink", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		s.True(ok)
		s.Equal("api", user)
		s.Equal("test-key", pass)
		s.Equal("image/jpeg", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{"url": srv.URL + "/output/abc"},
		})
	})
	mux.HandleFunc("GET /output/abc", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(compressed)
	})

	var c *Client
	c, srv = s.newClient(mux)

	result, err := c.Compress(context.Background(), jpegBytes, "image/jpeg")
	s.Require().NoError(err)
	s.Equal(len(jpegBytes), result.OriginalSize)
	s.Equal(len(compressed), result.CompressedSize)
	s.Equal("image/jpeg", result.MimeType)
	s.Equal(compressed, result.Data)
}

func (s *ClientSuite) TestCompressBadKey() {
	c, _ := s.newClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Compress(context.Background(), jpegBytes, "image/jpeg")
	s.True(apierror.Is(err, apierror.CodeUnauthorized))
	s.Contains(err.Error(), "API key inválida ou expirada")
}

func (s *ClientSuite) TestCompressQuotaExceeded() {
	c, _ := s.newClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Compress(context.Background(), jpegBytes, "image/jpeg")
	s.True(apierror.Is(err, apierror.CodeTooMany))
}

func (s *ClientSuite) TestCompressMalformedResponse() {
	c, _ := s.newClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"output": {}}`))
	}))

	_, err := c.Compress(context.Background(), jpegBytes, "image/jpeg")
	s.True(apierror.Is(err, apierror.CodeInternal))
	s.Contains(err.Error(), "Resposta inválida do Tinify")
}

type fakeCompressor struct {
	result *Compression
	err    error
}

func (f *fakeCompressor) Compress(context.Context, []byte, string) (*Compression, error) {
	return f.result, f.err
}

type HandlerSuite struct {
	suite.Suite
	compressor *fakeCompressor
	router     chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.compressor = &fakeCompressor{}
	s.router = chi.NewRouter()
	New(s.compressor, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *HandlerSuite) imageRequest(contentType string) *http.Request {
	return testutil.NewMultipartBuilder(s.T()).
		File("image", "photo.jpg", contentType, jpegBytes).
		Request(http.MethodPost, "/api/tinify/compress")
}

func (s *HandlerSuite) TestInfoRoute() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/api/tinify/compress"))
	testutil.AssertStatus(s.T(), rr, http.StatusMethodNotAllowed)
	testutil.AssertJSONContains(s.T(), rr, "error", "Method Not Allowed")
}

func (s *HandlerSuite) TestCompress() {
	compressed := []byte{0xFF, 0xD8, 0x01}
	s.compressor.result = &Compression{
		OriginalSize:   len(jpegBytes),
		CompressedSize: len(compressed),
		MimeType:       "image/jpeg",
		Data:           compressed,
	}

	rr := testutil.DoRequest(s.router, s.imageRequest("image/jpeg"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "success", true)
	testutil.AssertJSONContains(s.T(), rr, "mimeType", "image/jpeg")
	testutil.AssertJSONContains(s.T(), rr, "base64",
		"data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(compressed))
}

func (s *HandlerSuite) TestCompressMissingImage() {
	req := testutil.NewMultipartBuilder(s.T()).
		Field("note", "no file here").
		Request(http.MethodPost, "/api/tinify/compress")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertJSONContains(s.T(), rr, "error", "Nenhuma imagem enviada")
}

func (s *HandlerSuite) TestCompressRejectsNonImage() {
	rr := testutil.DoRequest(s.router, s.imageRequest("application/pdf"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertJSONContains(s.T(), rr, "error", "Arquivo deve ser uma imagem")
}

func (s *HandlerSuite) TestCompressWithoutAPIKey() {
	router := chi.NewRouter()
	New(nil, slog.New(slog.DiscardHandler)).Register(router)

	rr := testutil.DoRequest(router, s.imageRequest("image/jpeg"))
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	testutil.AssertJSONContains(s.T(), rr, "error", "TINIFY_API_KEY não configurada")
}
