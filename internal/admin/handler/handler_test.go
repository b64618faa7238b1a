package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"solidum/internal/admin"
	adminstore "solidum/internal/admin/store"
	"solidum/internal/registration/models"
	regstore "solidum/internal/registration/store"
	"solidum/internal/storage"
	"solidum/pkg/testutil"
)

type listResponse struct {
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int              `json:"total"`
	Items    []models.Summary `json:"items"`
}

type AdminHandlerSuite struct {
	suite.Suite
	store  *regstore.InMemoryStore
	tokens *admin.TokenService
	router chi.Router
	bearer string
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	s.store = regstore.NewInMemoryStore()
	admins := adminstore.NewInMemoryStore()
	admins.Add(adminstore.User{ID: "u1", Email: "ops@example.com", Name: "Ops", Role: "admin", Active: true})

	logger := slog.New(slog.DiscardHandler)
	svc, err := admin.New(s.store, admins, storage.NewMemoryStore(), nil, logger)
	s.Require().NoError(err)

	s.tokens = admin.NewTokenService("test-secret", "solidum")
	tok, err := s.tokens.GenerateToken("ops@example.com", time.Hour)
	s.Require().NoError(err)
	s.bearer = "Bearer " + tok

	s.router = chi.NewRouter()
	New(svc, s.tokens, logger).Register(s.router)
}

func (s *AdminHandlerSuite) get(path string) *http.Request {
	req := testutil.NewRequest(s.T(), http.MethodGet, path)
	req.Header.Set("Authorization", s.bearer)
	return req
}

func (s *AdminHandlerSuite) seed(id string, t models.AccountType, status models.Status, createdAt time.Time) {
	reg := &models.Registration{
		ID:             id,
		Type:           t,
		Status:         status,
		ProtocolNumber: "NS-2025-" + id,
		CreatedAt:      createdAt,
		Payload: &models.Form{
			AccountType: t,
			PF:          &models.PFPayload{FullName: "Maria da Silva", Email: "maria@example.com"},
		},
	}
	s.Require().NoError(s.store.CreateRegistration(s.T().Context(), reg))
}

func (s *AdminHandlerSuite) TestMe() {
	rr := testutil.DoRequest(s.router, s.get("/api/admin/me"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "ok", true)
	testutil.AssertJSONContains(s.T(), rr, "email", "ops@example.com")
}

func (s *AdminHandlerSuite) TestMissingToken() {
	rr := testutil.DoRequest(s.router,
		testutil.NewRequest(s.T(), http.MethodGet, "/api/admin/me"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	testutil.AssertJSONContains(s.T(), rr, "error", "Token de autenticacao ausente")
}

func (s *AdminHandlerSuite) TestMalformedToken() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/admin/me")
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	testutil.AssertJSONContains(s.T(), rr, "error", "Token invalido")
}

func (s *AdminHandlerSuite) TestExpiredToken() {
	tok, err := s.tokens.GenerateToken("ops@example.com", -time.Minute)
	s.Require().NoError(err)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/admin/me")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	testutil.AssertJSONContains(s.T(), rr, "error", "Token invalido")
}

func (s *AdminHandlerSuite) TestUnlistedEmail() {
	tok, err := s.tokens.GenerateToken("stranger@example.com", time.Hour)
	s.Require().NoError(err)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/api/admin/me")
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	testutil.AssertJSONContains(s.T(), rr, "error", "Sem permissao")
}

func (s *AdminHandlerSuite) TestList() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.seed("001", models.AccountTypePF, models.StatusNovo, base)
	s.seed("002", models.AccountTypePF, models.StatusAprovado, base.Add(time.Hour))

	rr := testutil.DoRequest(s.router, s.get("/api/admin/registrations"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[listResponse](s.T(), rr)
	s.Equal(1, resp.Page)
	s.Equal(20, resp.PageSize)
	s.Equal(2, resp.Total)
	s.Require().Len(resp.Items, 2)
	s.Equal("002", resp.Items[0].ID)
}

func (s *AdminHandlerSuite) TestListFiltered() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.seed("001", models.AccountTypePF, models.StatusNovo, base)
	s.seed("002", models.AccountTypePF, models.StatusAprovado, base.AddDate(0, 0, 3))

	rr := testutil.DoRequest(s.router,
		s.get("/api/admin/registrations?status=APROVADO&from=2025-06-02&to=2025-06-04"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[listResponse](s.T(), rr)
	s.Equal(1, resp.Total)
	s.Require().Len(resp.Items, 1)
	s.Equal("002", resp.Items[0].ID)
}

func (s *AdminHandlerSuite) TestListEndOfDayInclusive() {
	// 2025-06-04T18:00 falls inside a "to=2025-06-04" filter.
	s.seed("001", models.AccountTypePF, models.StatusNovo,
		time.Date(2025, 6, 4, 18, 0, 0, 0, time.UTC))

	rr := testutil.DoRequest(s.router, s.get("/api/admin/registrations?to=2025-06-04"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[listResponse](s.T(), rr)
	s.Equal(1, resp.Total)
}

func (s *AdminHandlerSuite) TestDetail() {
	s.seed("010", models.AccountTypePF, models.StatusNovo, time.Now().UTC())

	rr := testutil.DoRequest(s.router, s.get("/api/admin/registrations/010"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONHasKey(s.T(), rr, "registration")
	testutil.AssertJSONHasKey(s.T(), rr, "files")
}

func (s *AdminHandlerSuite) TestDetailNotFound() {
	rr := testutil.DoRequest(s.router, s.get("/api/admin/registrations/missing"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertJSONContains(s.T(), rr, "error", "Cadastro nao encontrado")
}

func (s *AdminHandlerSuite) TestUpdateStatus() {
	s.seed("020", models.AccountTypePF, models.StatusNovo, time.Now().UTC())

	req := testutil.NewJSONRequest(s.T(), http.MethodPatch,
		"/api/admin/registrations/020/status", map[string]string{"status": "APROVADO"})
	req.Header.Set("Authorization", s.bearer)

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "ok", true)

	reg, err := s.store.GetRegistration(s.T().Context(), "020")
	s.Require().NoError(err)
	s.Equal(models.StatusAprovado, reg.Status)
}

func (s *AdminHandlerSuite) TestUpdateStatusInvalid() {
	s.seed("021", models.AccountTypePF, models.StatusNovo, time.Now().UTC())

	req := testutil.NewJSONRequest(s.T(), http.MethodPatch,
		"/api/admin/registrations/021/status", map[string]string{"status": "INVALIDO"})
	req.Header.Set("Authorization", s.bearer)

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertJSONContains(s.T(), rr, "error", "Status invalido")
}
