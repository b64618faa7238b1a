package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"solidum/internal/dedupe"
	"solidum/internal/mailer"
	"solidum/internal/registration/models"
	"solidum/internal/registration/service"
	"solidum/internal/registration/store"
	"solidum/internal/storage"
	"solidum/pkg/testutil"
)

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	pngBytes  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
)

type createResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Duplicate        bool   `json:"duplicate"`
	AttachmentsCount int    `json:"attachmentsCount"`
	RegistrationID   string `json:"registration_id"`
	ProtocolNumber   string `json:"protocol_number"`
	EmailSent        bool   `json:"emailSent"`
}

type legacyResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Duplicate        bool   `json:"duplicate"`
	AttachmentsCount int    `json:"attachmentsCount"`
	EmailID          string `json:"emailId"`
	SubmissionID     string `json:"submissionId"`
}

type errResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

type HandlerSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	objects *storage.MemoryStore
	mail    *mailer.Fake
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.objects = storage.NewMemoryStore()
	s.mail = mailer.NewFake()

	logger := slog.New(slog.DiscardHandler)
	svc, err := service.New(s.store, s.objects, dedupe.NewInMemoryStore(), s.mail,
		nil, nil, logger, "backoffice@example.com")
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, logger, nil).Register(s.router)
}

func pfFormData(submissionID string) map[string]any {
	return map[string]any{
		"accountType":  "PF",
		"submissionId": submissionID,
		"fullName":     "Maria da Silva",
		"email":        "maria@example.com",
		"phone":        "(11) 98765-4321",
		"cep":          "01310-100",
		"street":       "Av. Paulista",
		"number":       "1000",
		"district":     "Bela Vista",
		"city":         "São Paulo",
		"state":        "SP",
	}
}

func (s *HandlerSuite) createRequest(submissionID string) *http.Request {
	return testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData(submissionID)).
		File(models.FieldDocumentFront, "rg-frente.jpg", "image/jpeg", jpegBytes).
		File(models.FieldDocumentBack, "rg-verso.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/registrations/create")
}

func (s *HandlerSuite) TestCreate() {
	rr := testutil.DoRequest(s.router, s.createRequest("sub-1"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[createResponse](s.T(), rr)
	s.True(resp.Success)
	s.False(resp.Duplicate)
	s.Equal(2, resp.AttachmentsCount)
	s.True(resp.EmailSent)
	s.NotEmpty(resp.RegistrationID)
	s.Regexp(`^NS-\d{4}-\d{6}$`, resp.ProtocolNumber)

	s.Equal(2, s.objects.Len())
	s.Len(s.mail.Sent(), 2)
}

func (s *HandlerSuite) TestCreateDuplicate() {
	first := testutil.UnmarshalResponse[createResponse](s.T(),
		testutil.DoRequest(s.router, s.createRequest("sub-dup")))

	rr := testutil.DoRequest(s.router, s.createRequest("sub-dup"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[createResponse](s.T(), rr)
	s.True(resp.Success)
	s.True(resp.Duplicate)
	s.Equal("Envio ja recebido anteriormente.", resp.Message)
	s.Equal(first.RegistrationID, resp.RegistrationID)
	s.Equal(first.ProtocolNumber, resp.ProtocolNumber)

	s.Equal(2, s.objects.Len(), "duplicate must not store files again")
	s.Len(s.mail.Sent(), 2, "duplicate must not resend emails")
}

func (s *HandlerSuite) TestCreateHoneypot() {
	req := testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData("sub-bot")).
		Field("honeypot", "http://spam.example").
		File(models.FieldDocumentFront, "rg.jpg", "image/jpeg", jpegBytes).
		File(models.FieldDocumentBack, "rg.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/registrations/create")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	resp := testutil.UnmarshalResponse[errResponse](s.T(), rr)
	s.Equal("Requisicao invalida", resp.Error)
	s.Equal(0, s.objects.Len())
}

func (s *HandlerSuite) TestCreateRejectsMimeType() {
	req := testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData("sub-exe")).
		File(models.FieldDocumentFront, "rg.exe", "application/x-msdownload", jpegBytes).
		File(models.FieldDocumentBack, "rg.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/registrations/create")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	resp := testutil.UnmarshalResponse[errResponse](s.T(), rr)
	s.Equal("Erro no upload de arquivos", resp.Error)
	s.Contains(resp.Message, "Tipo de arquivo nao permitido: application/x-msdownload")
	s.Equal(models.FieldDocumentFront, resp.Field)
}

func (s *HandlerSuite) TestCreateMissingDocuments() {
	req := testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData("sub-missing")).
		File(models.FieldDocumentFront, "rg.jpg", "image/jpeg", jpegBytes).
		Request(http.MethodPost, "/api/registrations/create")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	resp := testutil.UnmarshalResponse[errResponse](s.T(), rr)
	s.Equal("Documentos obrigatorios", resp.Error)
	s.Equal(models.FieldDocumentBack, resp.Field)
}

func (s *HandlerSuite) TestCreateInvalidFormData() {
	req := testutil.NewMultipartBuilder(s.T()).
		Field("formData", "{not json").
		File(models.FieldDocumentFront, "rg.jpg", "image/jpeg", jpegBytes).
		Request(http.MethodPost, "/api/registrations/create")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertJSONContains(s.T(), rr, "error", "Dados invalidos")
}

func (s *HandlerSuite) TestCreateForgedFileContent() {
	req := testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData("sub-forged")).
		File(models.FieldDocumentFront, "rg.jpg", "image/jpeg", []byte("MZ\x90\x00 not a jpeg")).
		File(models.FieldDocumentBack, "rg.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/registrations/create")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	resp := testutil.UnmarshalResponse[errResponse](s.T(), rr)
	s.Equal("Arquivo invalido", resp.Error)
	s.Equal(0, s.objects.Len(), "rejected submission must leave no stored objects")
}

func (s *HandlerSuite) TestLegacySend() {
	req := testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData("sub-legacy")).
		File(models.FieldDocumentFront, "rg.jpg", "image/jpeg", jpegBytes).
		File(models.FieldDocumentBack, "rg.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/email/send")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[legacyResponse](s.T(), rr)
	s.True(resp.Success)
	s.Equal("Emails enviados com sucesso!", resp.Message)
	s.Equal(2, resp.AttachmentsCount)
	s.NotEmpty(resp.EmailID)
	s.Equal("sub-legacy", resp.SubmissionID)

	s.Equal(0, s.objects.Len(), "legacy route must not persist files")
	s.Len(s.mail.Sent(), 2)
}

func (s *HandlerSuite) TestLegacySendWithoutMailer() {
	logger := slog.New(slog.DiscardHandler)
	svc, err := service.New(s.store, s.objects, dedupe.NewInMemoryStore(), nil,
		nil, nil, logger, "backoffice@example.com")
	s.Require().NoError(err)
	router := chi.NewRouter()
	New(svc, logger, nil).Register(router)

	req := testutil.NewMultipartBuilder(s.T()).
		JSONField("formData", pfFormData("sub-nomail")).
		Request(http.MethodPost, "/api/email/send")

	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
	testutil.AssertJSONContains(s.T(), rr, "error", "Servidor de email não configurado")
}
