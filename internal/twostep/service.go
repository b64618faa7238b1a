// Package twostep implements the split registration flow: the applicant
// submits the form first and receives an emailed upload link carrying an
// opaque token, then sends the documents in a second request gated by that
// token. Tokens are single use and expire after 24 hours.
package twostep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solidum/internal/filecheck"
	"solidum/internal/mailer"
	"solidum/internal/platform/clock"
	"solidum/internal/platform/metrics"
	"solidum/internal/registration/models"
	"solidum/internal/token"
	"solidum/internal/validate"
	"solidum/pkg/apierror"
	"solidum/pkg/platform/sentinel"
)

// Upload is one document received in the second step.
type Upload struct {
	Field    string
	Filename string
	MimeType string
	Content  []byte
}

// InitialResult is the outcome of the first step.
type InitialResult struct {
	Message string
	Token   string
}

// DocumentsResult is the outcome of the second step.
type DocumentsResult struct {
	Message     string
	Attachments int
}

// Service runs both steps of the split flow.
type Service struct {
	tokens  token.Store
	mail    mailer.Mailer // nil when SMTP is not configured
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	clock   clock.Clock

	companyEmail string
	frontendURL  string
}

// Option overrides a Service collaborator after construction.
type Option func(*Service)

// WithClock substitutes the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New wires the split flow. The mailer may be nil; both steps then refuse
// with a configuration error, since the flow is useless without the emailed
// upload link.
func New(
	tokens token.Store,
	mail mailer.Mailer,
	m *metrics.Metrics,
	logger *slog.Logger,
	companyEmail string,
	frontendURL string,
	opts ...Option,
) (*Service, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	s := &Service{
		tokens:       tokens,
		mail:         mail,
		metrics:      m,
		logger:       logger,
		tracer:       otel.Tracer("solidum/twostep"),
		clock:        clock.RealClock{},
		companyEmail: companyEmail,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initial validates the form, mints the upload token and emails the applicant
// the upload link. The back office gets a short notice that documents are
// still pending.
func (s *Service) Initial(ctx context.Context, form *models.Form) (*InitialResult, error) {
	ctx, span := s.tracer.Start(ctx, "twostep.initial",
		trace.WithAttributes(attribute.String("account_type", string(form.AccountType))))
	defer span.End()

	res, err := s.initial(ctx, form)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *Service) initial(ctx context.Context, form *models.Form) (*InitialResult, error) {
	if s.mail == nil {
		return nil, errMailNotConfigured()
	}

	sanitized, errs := validate.Form(form)
	if len(errs) > 0 {
		s.logger.Warn("initial registration validation failed", "errors", errs)
		return nil, apierror.New(apierror.CodeBadRequest, "Dados inválidos", strings.Join(errs, ", "))
	}
	form = sanitized

	tok, err := token.New()
	if err != nil {
		s.logger.Error("minting upload token", "error", err)
		return nil, errInitialFailed()
	}

	now := s.clock.Now()
	data := token.Data{
		Form:        form,
		AccountType: form.AccountType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(token.TTL),
	}
	if err := s.tokens.Put(ctx, tok, data); err != nil {
		s.logger.Error("storing upload token", "error", err)
		return nil, errInitialFailed()
	}

	uploadURL := s.frontendURL + "/upload-docs.html?token=" + tok

	userMsg := mailer.Message{
		FromName: mailer.FromNameCompany,
		To:       form.ContactEmail(),
		Subject:  mailer.SubjectUploadLink,
		HTML:     mailer.UploadLinkHTML(form.ContactName(), uploadURL),
	}
	if _, err := s.mail.Send(ctx, userMsg); err != nil {
		s.logger.Error("sending upload link email", "error", err, "to", form.ContactEmail())
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
		// The applicant never received the link, so the token is garbage.
		_ = s.tokens.Delete(ctx, tok)
		return nil, errInitialFailed()
	}

	companyMsg := mailer.Message{
		FromName: mailer.FromNameForm,
		To:       s.companyEmail,
		ReplyTo:  form.ContactEmail(),
		Subject:  mailer.SubjectInitialNotice(form.AccountType),
		HTML:     mailer.CompanyInitialNoticeHTML(form.AccountType, form.ContactName(), form.ContactEmail()),
	}
	if _, err := s.mail.Send(ctx, companyMsg); err != nil {
		// The applicant already has the link; losing the notice is not worth
		// failing the whole flow over.
		s.logger.Error("sending initial notice email", "error", err)
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
	}
	if s.metrics != nil {
		s.metrics.EmailsSent.Add(2)
	}

	return &InitialResult{
		Message: "Cadastro realizado com sucesso! Verifique seu email para enviar os documentos.",
		Token:   tok,
	}, nil
}

// Verify loads the payload behind a token. Unknown tokens return
// sentinel.ErrNotFound and expired ones sentinel.ErrExpired.
func (s *Service) Verify(ctx context.Context, tok string) (token.Data, error) {
	if tok == "" {
		return token.Data{}, sentinel.ErrNotFound
	}
	return s.tokens.Get(ctx, tok, s.clock.Now())
}

// Documents completes the flow: documents arrive under a live token, get
// verified and forwarded by email, and the token is consumed so it cannot be
// replayed.
func (s *Service) Documents(ctx context.Context, tok string, uploads []Upload) (*DocumentsResult, error) {
	ctx, span := s.tracer.Start(ctx, "twostep.documents")
	defer span.End()

	res, err := s.documents(ctx, tok, uploads)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("attachments", res.Attachments))
	return res, nil
}

func (s *Service) documents(ctx context.Context, tok string, uploads []Upload) (*DocumentsResult, error) {
	if tok == "" {
		return nil, apierror.New(apierror.CodeUnauthorized, "Token de autenticação não fornecido", "")
	}
	data, err := s.tokens.Get(ctx, tok, s.clock.Now())
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return nil, apierror.New(apierror.CodeUnauthorized, "Token expirado", "")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, apierror.New(apierror.CodeUnauthorized, "Token inválido ou expirado", "")
		}
		s.logger.Error("loading upload token", "error", err)
		return nil, apierror.New(apierror.CodeInternal, "Erro ao enviar documentos",
			"Ocorreu um erro ao processar sua solicitação. Tente novamente mais tarde.")
	}

	if s.mail == nil {
		return nil, errMailNotConfigured()
	}

	byField := make(map[string]*Upload, len(uploads))
	for i := range uploads {
		u := &uploads[i]
		if _, ok := byField[u.Field]; !ok {
			byField[u.Field] = u
		}
	}

	var missing []string
	for _, field := range models.RequiredDocumentFields(data.AccountType) {
		if byField[field] == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apierror.New(apierror.CodeBadRequest, "Documentos obrigatorios",
			"Por favor, anexe todos os documentos obrigatorios").WithField(missing[0])
	}

	var attachments []mailer.Attachment
	for _, field := range models.DocumentFields(data.AccountType) {
		u := byField[field]
		if u == nil {
			continue
		}
		if !filecheck.Matches(u.Content, u.MimeType, field) {
			// A forged file is dropped, not fatal; the applicant keeps the
			// token and can resubmit.
			s.logger.Warn("document failed magic byte verification",
				"field", field, "mime_type", u.MimeType, "size", len(u.Content))
			if s.metrics != nil {
				s.metrics.FilesRejected.Inc()
			}
			continue
		}
		attachments = append(attachments, mailer.Attachment{
			Filename:    u.Filename,
			Content:     u.Content,
			ContentType: u.MimeType,
		})
	}

	form := data.Form
	companyMsg := mailer.Message{
		FromName:    mailer.FromNameForm,
		To:          s.companyEmail,
		ReplyTo:     form.ContactEmail(),
		Subject:     mailer.SubjectDocumentsNotice(data.AccountType),
		HTML:        mailer.CompanyRegistrationHTML(form, len(attachments)),
		Attachments: attachments,
	}
	if _, err := s.mail.Send(ctx, companyMsg); err != nil {
		s.logger.Error("sending documents email", "error", err)
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
		return nil, apierror.New(apierror.CodeInternal, "Erro ao enviar documentos",
			"Ocorreu um erro ao processar sua solicitação. Tente novamente mais tarde.")
	}

	userMsg := mailer.Message{
		FromName: mailer.FromNameCompany,
		To:       form.ContactEmail(),
		Subject:  mailer.SubjectDocumentsReceived,
		HTML:     mailer.UserDocumentsReceivedHTML(form.ContactName()),
	}
	if _, err := s.mail.Send(ctx, userMsg); err != nil {
		// The documents already reached the back office.
		s.logger.Error("sending documents confirmation email", "error", err)
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
	}
	if s.metrics != nil {
		s.metrics.EmailsSent.Add(2)
	}

	// Consume the token so a replayed request cannot resend the documents.
	if err := s.tokens.Delete(ctx, tok); err != nil {
		s.logger.Error("consuming upload token", "error", err)
	}

	return &DocumentsResult{
		Message:     "Documentos enviados com sucesso! Verifique seu email para confirmação.",
		Attachments: len(attachments),
	}, nil
}

func errMailNotConfigured() error {
	return apierror.New(apierror.CodeInternal, "Servidor de email não configurado",
		"Configure EMAIL_HOST, EMAIL_USER e EMAIL_PASS no arquivo .env")
}

func errInitialFailed() error {
	return apierror.New(apierror.CodeInternal, "Erro ao processar cadastro",
		"Ocorreu um erro ao processar sua solicitação. Tente novamente mais tarde.")
}
