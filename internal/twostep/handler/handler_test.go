package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"solidum/internal/mailer"
	"solidum/internal/registration/models"
	"solidum/internal/token"
	"solidum/internal/twostep"
	"solidum/pkg/testutil"
)

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	pngBytes  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
)

type initialResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type verifyResponse struct {
	Valid       bool   `json:"valid"`
	AccountType string `json:"accountType"`
	ExpiresAt   int64  `json:"expiresAt"`
	Error       string `json:"error"`
}

type documentsResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	AttachmentsCount int    `json:"attachmentsCount"`
}

type TwoStepHandlerSuite struct {
	suite.Suite
	tokens *token.InMemoryStore
	mail   *mailer.Fake
	router chi.Router
}

func TestTwoStepHandlerSuite(t *testing.T) {
	suite.Run(t, new(TwoStepHandlerSuite))
}

func (s *TwoStepHandlerSuite) SetupTest() {
	s.tokens = token.NewInMemoryStore()
	s.mail = mailer.NewFake()

	logger := slog.New(slog.DiscardHandler)
	svc, err := twostep.New(s.tokens, s.mail, nil, logger,
		"backoffice@example.com", "https://forms.example.com")
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, logger, nil).Register(s.router)
}

func initialBody() map[string]any {
	return map[string]any{
		"accountType": "PF",
		"fullName":    "Maria da Silva",
		"email":       "maria@example.com",
		"phone":       "(11) 98765-4321",
		"cep":         "01310-100",
		"street":      "Av. Paulista",
		"number":      "1000",
		"district":    "Bela Vista",
		"city":        "São Paulo",
		"state":       "SP",
	}
}

func (s *TwoStepHandlerSuite) startFlow() string {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/register/initial", initialBody())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	return testutil.UnmarshalResponse[initialResponse](s.T(), rr).Token
}

func (s *TwoStepHandlerSuite) TestInitial() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/register/initial", initialBody())
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[initialResponse](s.T(), rr)
	s.True(resp.Success)
	s.Equal("Cadastro realizado com sucesso! Verifique seu email para enviar os documentos.", resp.Message)
	s.Len(resp.Token, 64)
	s.Len(s.mail.Sent(), 2)
}

func (s *TwoStepHandlerSuite) TestInitialMalformedBody() {
	req := testutil.NewRequest(s.T(), http.MethodPost, "/api/register/initial")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertJSONContains(s.T(), rr, "error", "Dados inválidos")
}

func (s *TwoStepHandlerSuite) TestInitialInvalidForm() {
	body := initialBody()
	body["email"] = "not-an-email"

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/register/initial", body)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertJSONContains(s.T(), rr, "error", "Dados inválidos")
}

func (s *TwoStepHandlerSuite) TestVerify() {
	tok := s.startFlow()

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/api/register/verify/"+tok))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[verifyResponse](s.T(), rr)
	s.True(resp.Valid)
	s.Equal("PF", resp.AccountType)
	s.Greater(resp.ExpiresAt, time.Now().UnixMilli())
}

func (s *TwoStepHandlerSuite) TestVerifyUnknownToken() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/api/register/verify/deadbeef"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)

	resp := testutil.UnmarshalResponse[verifyResponse](s.T(), rr)
	s.False(resp.Valid)
	s.Equal("Token inválido", resp.Error)
}

func (s *TwoStepHandlerSuite) TestVerifyExpiredToken() {
	data := token.Data{
		Form:        &models.Form{AccountType: models.AccountTypePF, PF: &models.PFPayload{}},
		AccountType: models.AccountTypePF,
		CreatedAt:   time.Now().Add(-25 * time.Hour),
		ExpiresAt:   time.Now().Add(-time.Hour),
	}
	s.Require().NoError(s.tokens.Put(s.T().Context(), "stale-token", data))

	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/api/register/verify/stale-token"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)

	resp := testutil.UnmarshalResponse[verifyResponse](s.T(), rr)
	s.False(resp.Valid)
	s.Equal("Token expirado", resp.Error)
}

func (s *TwoStepHandlerSuite) documentsRequest(tok string) *http.Request {
	req := testutil.NewMultipartBuilder(s.T()).
		File(models.FieldDocumentFront, "rg-frente.jpg", "image/jpeg", jpegBytes).
		File(models.FieldDocumentBack, "rg-verso.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/register/documents")
	if tok != "" {
		req.Header.Set("x-auth-token", tok)
	}
	return req
}

func (s *TwoStepHandlerSuite) TestDocuments() {
	tok := s.startFlow()
	s.mail.Reset()

	rr := testutil.DoRequest(s.router, s.documentsRequest(tok))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[documentsResponse](s.T(), rr)
	s.True(resp.Success)
	s.Equal("Documentos enviados com sucesso! Verifique seu email para confirmação.", resp.Message)
	s.Equal(2, resp.AttachmentsCount)
	s.Len(s.mail.Sent(), 2)
}

func (s *TwoStepHandlerSuite) TestDocumentsTokenInFormField() {
	tok := s.startFlow()

	req := testutil.NewMultipartBuilder(s.T()).
		Field("token", tok).
		File(models.FieldDocumentFront, "rg-frente.jpg", "image/jpeg", jpegBytes).
		File(models.FieldDocumentBack, "rg-verso.png", "image/png", pngBytes).
		Request(http.MethodPost, "/api/register/documents")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *TwoStepHandlerSuite) TestDocumentsMissingToken() {
	rr := testutil.DoRequest(s.router, s.documentsRequest(""))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	testutil.AssertJSONContains(s.T(), rr, "error", "Token de autenticação não fornecido")
}

func (s *TwoStepHandlerSuite) TestDocumentsReplayRejected() {
	tok := s.startFlow()

	rr := testutil.DoRequest(s.router, s.documentsRequest(tok))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = testutil.DoRequest(s.router, s.documentsRequest(tok))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	testutil.AssertJSONContains(s.T(), rr, "error", "Token inválido ou expirado")
}
