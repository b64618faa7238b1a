package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"solidum/internal/audit"
	"solidum/internal/dedupe"
	"solidum/internal/filecheck"
	"solidum/internal/mailer"
	"solidum/internal/registration/models"
	"solidum/internal/validate"
	"solidum/pkg/apierror"
)

// LegacyResult is the outcome of the email-only intake route kept for older
// frontend builds that predate database persistence.
type LegacyResult struct {
	Duplicate   bool
	Message     string
	Attachments int
	EmailID     string
}

// SendLegacy validates the form and emails the documents without storing
// anything beyond the audit trail. Files failing the signature check are
// silently dropped from the attachments rather than failing the request.
func (s *Service) SendLegacy(ctx context.Context, form *models.Form, uploads []Upload, client Client) (*LegacyResult, error) {
	if s.mail == nil {
		return nil, apierror.New(apierror.CodeInternal,
			"Servidor de email não configurado",
			"Configure EMAIL_HOST, EMAIL_USER e EMAIL_PASS no arquivo .env")
	}

	sanitized, errs := validate.Form(form)
	if len(errs) > 0 {
		s.logger.Warn("legacy send validation failed", "errors", errs)
		return nil, apierror.New(apierror.CodeBadRequest, "Dados inválidos", strings.Join(errs, ", "))
	}
	form = sanitized
	now := s.clock.Now()

	submissionID := form.SubmissionID
	if submissionID != "" {
		rec, ok, err := s.submissions.Acquire(ctx, submissionID, now)
		if err != nil {
			return nil, fmt.Errorf("checking submission: %w", err)
		}
		if !ok {
			if s.metrics != nil {
				s.metrics.DuplicateSubmissions.Inc()
			}
			res := &LegacyResult{Duplicate: true, Message: "Envio ja recebido anteriormente."}
			if rec != nil {
				res.Attachments = rec.Attachments
			}
			return res, nil
		}
	}

	result, err := s.sendLegacy(ctx, form, uploads, client, now)
	if submissionID != "" {
		if err != nil {
			if relErr := s.submissions.Release(ctx, submissionID); relErr != nil {
				s.logger.Warn("dedupe release failed", "error", relErr, "submission_id", submissionID)
			}
		} else {
			rec := dedupe.Record{Attachments: result.Attachments, StoredAt: now}
			if remErr := s.submissions.Complete(ctx, submissionID, rec); remErr != nil {
				s.logger.Warn("dedupe complete failed", "error", remErr, "submission_id", submissionID)
			}
		}
	}
	return result, err
}

func (s *Service) sendLegacy(ctx context.Context, form *models.Form, uploads []Upload, client Client, now time.Time) (*LegacyResult, error) {
	byField := make(map[string]*Upload, len(uploads))
	for i := range uploads {
		u := &uploads[i]
		if _, dup := byField[u.Field]; !dup {
			byField[u.Field] = u
		}
	}

	var missing []string
	for _, field := range models.RequiredDocumentFields(form.AccountType) {
		if byField[field] == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apierror.New(apierror.CodeBadRequest,
			"Documentos obrigatorios",
			"Por favor, anexe todos os documentos obrigatorios").WithField(missing[0])
	}

	var attachments []mailer.Attachment
	var names []string
	for _, field := range models.DocumentFields(form.AccountType) {
		u := byField[field]
		if u == nil {
			continue
		}
		if !filecheck.Matches(u.Content, u.MimeType, field) {
			if s.metrics != nil {
				s.metrics.FilesRejected.Inc()
			}
			s.logger.Warn("file dropped by signature check", "field", field, "mime_type", u.MimeType)
			continue
		}
		attachments = append(attachments, mailer.Attachment{
			Filename:    u.Filename,
			Content:     u.Content,
			ContentType: u.MimeType,
		})
		names = append(names, u.Filename)
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Entry{
			ReceivedAt:   now,
			AccountType:  form.AccountType,
			SubmissionID: form.SubmissionID,
			Attachments:  names,
			Form:         form,
		}.WithClient(client.IP, client.UserAgent))
	}

	userEmail := form.ContactEmail()
	emailID, err := s.mail.Send(ctx, mailer.Message{
		FromName:    mailer.FromNameForm,
		To:          s.companyEmail,
		ReplyTo:     userEmail,
		Subject:     mailer.SubjectRegistration(form.AccountType),
		HTML:        mailer.CompanyRegistrationHTML(form, len(attachments)),
		Attachments: attachments,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
		s.logger.Error("failed to send legacy registration email", "error", err)
		return nil, apierror.New(apierror.CodeInternal,
			"Erro ao enviar email",
			"Ocorreu um erro ao processar sua solicitação. Por favor, tente novamente mais tarde.")
	}

	if _, err := s.mail.Send(ctx, mailer.Message{
		FromName: mailer.FromNameCompany,
		To:       userEmail,
		Subject:  "Registro Confirmado - Nova Solidum Finances",
		HTML:     mailer.UserRegistrationConfirmedHTML(form.ContactName()),
	}); err != nil {
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
		s.logger.Error("failed to send legacy confirmation email", "error", err)
		return nil, apierror.New(apierror.CodeInternal,
			"Erro ao enviar email",
			"Ocorreu um erro ao processar sua solicitação. Por favor, tente novamente mais tarde.")
	}

	if s.metrics != nil {
		s.metrics.EmailsSent.Add(2)
	}
	s.logger.Info("legacy email sent",
		"type", form.AccountType,
		"attachments", len(attachments),
		"email_id", emailID,
	)
	return &LegacyResult{
		Message:     "Emails enviados com sucesso!",
		Attachments: len(attachments),
		EmailID:     emailID,
	}, nil
}
