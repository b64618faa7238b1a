package twostep

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solidum/internal/mailer"
	"solidum/internal/registration/models"
	"solidum/internal/token"
	"solidum/pkg/apierror"
	"solidum/pkg/platform/sentinel"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	pngBytes  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
)

type TwoStepSuite struct {
	suite.Suite
	ctx    context.Context
	tokens *token.InMemoryStore
	mail   *mailer.Fake
	now    time.Time
	svc    *Service
}

func TestTwoStepSuite(t *testing.T) {
	suite.Run(t, new(TwoStepSuite))
}

func (s *TwoStepSuite) SetupTest() {
	s.ctx = context.Background()
	s.tokens = token.NewInMemoryStore()
	s.mail = mailer.NewFake()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := New(s.tokens, s.mail, nil, slog.New(slog.DiscardHandler),
		"backoffice@example.com", "https://forms.example.com/",
		WithClock(fixedClock{s.now}))
	s.Require().NoError(err)
	s.svc = svc
}

func pfForm() *models.Form {
	return &models.Form{
		AccountType: models.AccountTypePF,
		PF: &models.PFPayload{
			FullName: "Maria da Silva",
			Email:    "maria@example.com",
			Phone:    "(11) 98765-4321",
			Cep:      "01310-100",
			Street:   "Av. Paulista",
			Number:   "1000",
			District: "Bela Vista",
			City:     "São Paulo",
			State:    "SP",
		},
	}
}

func frontBackUploads() []Upload {
	return []Upload{
		{Field: models.FieldDocumentFront, Filename: "rg-frente.jpg", MimeType: "image/jpeg", Content: jpegBytes},
		{Field: models.FieldDocumentBack, Filename: "rg-verso.png", MimeType: "image/png", Content: pngBytes},
	}
}

func (s *TwoStepSuite) TestInitial() {
	res, err := s.svc.Initial(s.ctx, pfForm())
	s.Require().NoError(err)

	s.Equal("Cadastro realizado com sucesso! Verifique seu email para enviar os documentos.", res.Message)
	s.Len(res.Token, 64)
	s.Equal(1, s.tokens.Len())

	sent := s.mail.Sent()
	s.Require().Len(sent, 2)

	link := sent[0]
	s.Equal(mailer.FromNameCompany, link.FromName)
	s.Equal("maria@example.com", link.To)
	s.Equal(mailer.SubjectUploadLink, link.Subject)
	s.Contains(link.HTML, "https://forms.example.com/upload-docs.html?token="+res.Token)

	notice := sent[1]
	s.Equal(mailer.FromNameForm, notice.FromName)
	s.Equal("backoffice@example.com", notice.To)
	s.Equal("maria@example.com", notice.ReplyTo)
	s.Equal("Novo Cadastro PF - Nova Solidum Finances", notice.Subject)

	data, err := s.svc.Verify(s.ctx, res.Token)
	s.Require().NoError(err)
	s.Equal(models.AccountTypePF, data.AccountType)
	s.Equal(s.now.Add(token.TTL), data.ExpiresAt)
	s.Equal("Maria da Silva", data.Form.PF.FullName)
}

func (s *TwoStepSuite) TestInitialValidation() {
	form := pfForm()
	form.PF.Email = "not-an-email"

	_, err := s.svc.Initial(s.ctx, form)
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeBadRequest))
	s.Contains(err.Error(), "Email inválido")
	s.Zero(s.tokens.Len())
	s.Empty(s.mail.Sent())
}

func (s *TwoStepSuite) TestInitialWithoutMailer() {
	svc, err := New(s.tokens, nil, nil, slog.New(slog.DiscardHandler),
		"backoffice@example.com", "https://forms.example.com")
	s.Require().NoError(err)

	_, err = svc.Initial(s.ctx, pfForm())
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeInternal))
	s.Contains(err.Error(), "Servidor de email não configurado")
}

func (s *TwoStepSuite) TestInitialEmailFailureDiscardsToken() {
	s.mail.Err = errors.New("smtp down")

	_, err := s.svc.Initial(s.ctx, pfForm())
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeInternal))
	s.Zero(s.tokens.Len(), "a token the applicant never received must not stay live")
}

func (s *TwoStepSuite) TestVerify() {
	s.Run("empty token", func() {
		_, err := s.svc.Verify(s.ctx, "")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown token", func() {
		_, err := s.svc.Verify(s.ctx, "deadbeef")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("expired token", func() {
		data := token.Data{
			Form:        pfForm(),
			AccountType: models.AccountTypePF,
			CreatedAt:   s.now.Add(-25 * time.Hour),
			ExpiresAt:   s.now.Add(-time.Hour),
		}
		s.Require().NoError(s.tokens.Put(s.ctx, "expired-token", data))

		_, err := s.svc.Verify(s.ctx, "expired-token")
		s.ErrorIs(err, sentinel.ErrExpired)
	})
}

func (s *TwoStepSuite) TestDocuments() {
	initial, err := s.svc.Initial(s.ctx, pfForm())
	s.Require().NoError(err)
	s.mail.Reset()

	res, err := s.svc.Documents(s.ctx, initial.Token, frontBackUploads())
	s.Require().NoError(err)
	s.Equal("Documentos enviados com sucesso! Verifique seu email para confirmação.", res.Message)
	s.Equal(2, res.Attachments)

	sent := s.mail.Sent()
	s.Require().Len(sent, 2)

	docs := sent[0]
	s.Equal("backoffice@example.com", docs.To)
	s.Equal("maria@example.com", docs.ReplyTo)
	s.Equal("Documentos Recebidos - Registro PF - Nova Solidum Finances", docs.Subject)
	s.Require().Len(docs.Attachments, 2)
	s.Equal("rg-frente.jpg", docs.Attachments[0].Filename)

	confirm := sent[1]
	s.Equal("maria@example.com", confirm.To)
	s.Equal(mailer.SubjectDocumentsReceived, confirm.Subject)
	s.Empty(confirm.Attachments)
}

func (s *TwoStepSuite) TestDocumentsConsumesToken() {
	initial, err := s.svc.Initial(s.ctx, pfForm())
	s.Require().NoError(err)

	_, err = s.svc.Documents(s.ctx, initial.Token, frontBackUploads())
	s.Require().NoError(err)

	_, err = s.svc.Verify(s.ctx, initial.Token)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.svc.Documents(s.ctx, initial.Token, frontBackUploads())
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeUnauthorized))
	s.Contains(err.Error(), "Token inválido ou expirado")
}

func (s *TwoStepSuite) TestDocumentsMissingRequired() {
	initial, err := s.svc.Initial(s.ctx, pfForm())
	s.Require().NoError(err)

	uploads := []Upload{
		{Field: models.FieldDocumentFront, Filename: "rg.jpg", MimeType: "image/jpeg", Content: jpegBytes},
	}
	_, err = s.svc.Documents(s.ctx, initial.Token, uploads)
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeBadRequest))

	var apiErr *apierror.Error
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Documentos obrigatorios", apiErr.Title)
	s.Equal(models.FieldDocumentBack, apiErr.Field)

	// A rejected second step keeps the token live for a retry.
	s.Equal(1, s.tokens.Len())
}

func (s *TwoStepSuite) TestDocumentsDropsForgedFile() {
	initial, err := s.svc.Initial(s.ctx, pfForm())
	s.Require().NoError(err)
	s.mail.Reset()

	uploads := frontBackUploads()
	uploads[1].Content = []byte("MZ\x90\x00 not a png")

	res, err := s.svc.Documents(s.ctx, initial.Token, uploads)
	s.Require().NoError(err)
	s.Equal(1, res.Attachments)

	sent := s.mail.Sent()
	s.Require().Len(sent, 2)
	s.Require().Len(sent[0].Attachments, 1)
	s.Equal("rg-frente.jpg", sent[0].Attachments[0].Filename)
}

func (s *TwoStepSuite) TestDocumentsExpiredToken() {
	data := token.Data{
		Form:        pfForm(),
		AccountType: models.AccountTypePF,
		CreatedAt:   s.now.Add(-25 * time.Hour),
		ExpiresAt:   s.now.Add(-time.Hour),
	}
	s.Require().NoError(s.tokens.Put(s.ctx, "stale-token", data))

	_, err := s.svc.Documents(s.ctx, "stale-token", frontBackUploads())
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeUnauthorized))
	s.Contains(err.Error(), "Token expirado")
}

func (s *TwoStepSuite) TestDocumentsMissingToken() {
	_, err := s.svc.Documents(s.ctx, "", frontBackUploads())
	s.Require().Error(err)
	s.True(apierror.Is(err, apierror.CodeUnauthorized))
	s.Contains(err.Error(), "Token de autenticação não fornecido")
}
