// Package service implements the registration intake pipeline: validation,
// deduplication, document verification, persistence, notification email and
// the audit trail, with full rollback when any persistence step fails.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solidum/internal/audit"
	"solidum/internal/dedupe"
	"solidum/internal/filecheck"
	"solidum/internal/mailer"
	"solidum/internal/platform/clock"
	"solidum/internal/platform/metrics"
	"solidum/internal/registration/models"
	"solidum/internal/registration/store"
	"solidum/internal/storage"
	"solidum/internal/validate"
	"solidum/pkg/apierror"
)

// Upload is one document received with the submission.
type Upload struct {
	Field    string
	Filename string
	MimeType string
	Content  []byte
}

// Client identifies the submitting browser for the audit trail.
type Client struct {
	IP        string
	UserAgent string
}

// Result is what the handler renders back to the applicant.
type Result struct {
	Duplicate      bool
	Message        string
	Attachments    int
	RegistrationID string
	ProtocolNumber string
	EmailSent      bool
}

// Service runs the intake pipeline.
type Service struct {
	store       store.Store
	objects     storage.ObjectStore
	submissions dedupe.Store
	mail        mailer.Mailer // nil when SMTP is not configured
	auditor     *audit.Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	clock       clock.Clock
	ids         clock.IDGenerator

	companyEmail string
}

// Option overrides a Service collaborator after construction.
type Option func(*Service)

// WithClock substitutes the time source.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator substitutes the id source.
func WithIDGenerator(g clock.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// New wires the intake pipeline. The mailer may be nil; registrations are
// then accepted without notification email and reported with emailSent false.
func New(
	st store.Store,
	objects storage.ObjectStore,
	submissions dedupe.Store,
	mail mailer.Mailer,
	auditor *audit.Recorder,
	m *metrics.Metrics,
	logger *slog.Logger,
	companyEmail string,
	opts ...Option,
) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("registration store is required")
	}
	if objects == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if submissions == nil {
		return nil, fmt.Errorf("dedupe store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	s := &Service{
		store:        st,
		objects:      objects,
		submissions:  submissions,
		mail:         mail,
		auditor:      auditor,
		metrics:      m,
		logger:       logger,
		tracer:       otel.Tracer("solidum/registration"),
		clock:        clock.RealClock{},
		ids:          clock.UUIDGenerator{},
		companyEmail: companyEmail,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit runs the whole pipeline for one registration. The returned error is
// an *apierror.Error for client faults; anything else is an internal failure
// already logged with context.
func (s *Service) Submit(ctx context.Context, form *models.Form, uploads []Upload, client Client) (*Result, error) {
	start := s.clock.Now()
	defer s.metrics.ObserveIntake(start)

	ctx, span := s.tracer.Start(ctx, "registration.submit",
		trace.WithAttributes(attribute.String("account_type", string(accountType(form)))))
	defer span.End()

	result, err := s.submit(ctx, form, uploads, client)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("duplicate", result.Duplicate),
		attribute.Int("attachments", result.Attachments),
	)
	return result, nil
}

func (s *Service) submit(ctx context.Context, form *models.Form, uploads []Upload, client Client) (*Result, error) {
	sanitized, errs := validate.Form(form)
	if len(errs) > 0 {
		s.logger.Warn("registration validation failed", "errors", errs)
		return nil, apierror.New(apierror.CodeBadRequest, "Dados invalidos", strings.Join(errs, ", "))
	}
	form = sanitized
	now := s.clock.Now()

	// Idempotency gate. An empty submission id opts out of deduplication.
	submissionID := form.SubmissionID
	if submissionID != "" {
		rec, ok, err := s.submissions.Acquire(ctx, submissionID, now)
		if err != nil {
			s.logger.Error("dedupe acquire failed", "error", err, "submission_id", submissionID)
			return nil, fmt.Errorf("checking submission: %w", err)
		}
		if !ok {
			if s.metrics != nil {
				s.metrics.DuplicateSubmissions.Inc()
			}
			res := &Result{Duplicate: true, Message: "Envio ja recebido anteriormente."}
			if rec != nil {
				res.Attachments = rec.Attachments
				res.RegistrationID = rec.RegistrationID
				res.ProtocolNumber = rec.ProtocolNumber
			}
			return res, nil
		}
	}

	result, err := s.process(ctx, form, uploads, client, now)
	if submissionID != "" {
		if err != nil {
			// Free the reservation so the client may retry.
			if relErr := s.submissions.Release(ctx, submissionID); relErr != nil {
				s.logger.Warn("dedupe release failed", "error", relErr, "submission_id", submissionID)
			}
		} else {
			rec := dedupe.Record{
				RegistrationID: result.RegistrationID,
				ProtocolNumber: result.ProtocolNumber,
				Attachments:    result.Attachments,
				StoredAt:       now,
			}
			if remErr := s.submissions.Complete(ctx, submissionID, rec); remErr != nil {
				s.logger.Warn("dedupe complete failed", "error", remErr, "submission_id", submissionID)
			}
		}
	}
	return result, err
}

func (s *Service) process(ctx context.Context, form *models.Form, uploads []Upload, client Client, now time.Time) (*Result, error) {
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

	reg := &models.Registration{
		ID:             s.ids.New(),
		Type:           form.AccountType,
		Payload:        form,
		Status:         models.StatusNovo,
		ProtocolNumber: s.protocolNumber(now),
		CreatedAt:      now,
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		s.logger.Error("failed to save registration", "error", err)
		return nil, apierror.New(apierror.CodeInternal,
			"Falha ao salvar cadastro", "Nao foi possivel salvar o cadastro")
	}

	attachments, uploadedKeys, err := s.storeDocuments(ctx, reg, byField, now)
	if err != nil {
		s.rollback(ctx, reg.ID, uploadedKeys)
		return nil, err
	}

	attachmentNames := make([]string, len(attachments))
	for i, a := range attachments {
		attachmentNames[i] = a.Filename
	}
	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Entry{
			ReceivedAt:   now,
			AccountType:  form.AccountType,
			SubmissionID: form.SubmissionID,
			Attachments:  attachmentNames,
			Form:         form,
		}.WithClient(client.IP, client.UserAgent))
	}

	emailSent := s.sendEmails(ctx, form, attachments)

	if s.metrics != nil {
		s.metrics.RegistrationsCreated.WithLabelValues(string(form.AccountType)).Inc()
	}
	s.logger.Info("registration created",
		"registration_id", reg.ID,
		"protocol_number", reg.ProtocolNumber,
		"type", reg.Type,
		"attachments", len(attachments),
		"email_sent", emailSent,
	)

	message := "Cadastro recebido com sucesso. O email pode demorar a chegar."
	if emailSent {
		message = "Cadastro enviado com sucesso! Verifique seu email para confirmacao."
	}
	return &Result{
		Message:        message,
		Attachments:    len(attachments),
		RegistrationID: reg.ID,
		ProtocolNumber: reg.ProtocolNumber,
		EmailSent:      emailSent,
	}, nil
}

// storeDocuments verifies, uploads and records every document in the fixed
// processing order of the account type. On error the returned keys identify
// the objects already uploaded, for rollback.
func (s *Service) storeDocuments(ctx context.Context, reg *models.Registration, byField map[string]*Upload, now time.Time) ([]mailer.Attachment, []string, error) {
	var (
		attachments []mailer.Attachment
		uploaded    []string
	)
	for _, field := range models.DocumentFields(reg.Type) {
		u := byField[field]
		if u == nil {
			continue
		}

		if !filecheck.Matches(u.Content, u.MimeType, field) {
			if s.metrics != nil {
				s.metrics.FilesRejected.Inc()
			}
			s.logger.Warn("file rejected by signature check",
				"field", field, "mime_type", u.MimeType, "size", len(u.Content))
			return nil, uploaded, apierror.New(apierror.CodeBadRequest,
				"Arquivo invalido", "Arquivo rejeitado por seguranca").WithField(field)
		}

		fileType := models.FileTypeFor(field)
		key := fmt.Sprintf("%s/%s/%d-%s", reg.ID, fileType, now.UnixMilli(), sanitizeFilename(u.Filename))

		if err := s.objects.Put(ctx, key, u.Content, u.MimeType); err != nil {
			s.logger.Error("failed to upload file", "error", err, "field", field)
			return nil, uploaded, apierror.New(apierror.CodeInternal,
				"Falha ao salvar arquivos", "Nao foi possivel salvar os documentos")
		}
		uploaded = append(uploaded, key)

		file := &models.File{
			ID:             s.ids.New(),
			RegistrationID: reg.ID,
			FileType:       fileType,
			StoragePath:    key,
			Metadata: models.FileMetadata{
				MimeType:     u.MimeType,
				Size:         int64(len(u.Content)),
				OriginalName: u.Filename,
			},
			CreatedAt: now,
		}
		if err := s.store.AddFile(ctx, file); err != nil {
			s.logger.Error("failed to record file", "error", err, "field", field)
			return nil, uploaded, apierror.New(apierror.CodeInternal,
				"Falha ao registrar arquivos", "Nao foi possivel registrar os documentos")
		}

		attachments = append(attachments, mailer.Attachment{
			Filename:    u.Filename,
			Content:     u.Content,
			ContentType: u.MimeType,
		})
	}
	return attachments, uploaded, nil
}

// rollback undoes a partially persisted submission: uploaded objects first,
// then the registration row, which cascades over its file rows.
func (s *Service) rollback(ctx context.Context, registrationID string, uploadedKeys []string) {
	for _, key := range uploadedKeys {
		if err := s.objects.Remove(ctx, key); err != nil {
			s.logger.Warn("rollback: failed to remove object", "error", err, "key", key)
		}
	}
	if err := s.store.DeleteRegistration(ctx, registrationID); err != nil {
		s.logger.Warn("rollback: failed to delete registration", "error", err, "registration_id", registrationID)
	}
}

// sendEmails delivers the back-office notification with attachments and the
// applicant confirmation. Email failure never fails the submission.
func (s *Service) sendEmails(ctx context.Context, form *models.Form, attachments []mailer.Attachment) bool {
	if s.mail == nil {
		s.logger.Warn("email not configured, registration saved without notification")
		return false
	}

	userEmail := form.ContactEmail()
	_, err := s.mail.Send(ctx, mailer.Message{
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
		s.logger.Error("failed to send registration email", "error", err)
		return false
	}

	_, err = s.mail.Send(ctx, mailer.Message{
		FromName: mailer.FromNameCompany,
		To:       userEmail,
		Subject:  mailer.SubjectDocumentsReceived,
		HTML:     mailer.UserDocumentsReceivedHTML(form.ContactName()),
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.EmailsFailed.Inc()
		}
		s.logger.Error("failed to send confirmation email", "error", err)
		return false
	}

	if s.metrics != nil {
		s.metrics.EmailsSent.Add(2)
	}
	return true
}

// protocolNumber formats NS-<year>-<six random digits>.
func (s *Service) protocolNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to the clock so intake keeps working.
		return fmt.Sprintf("NS-%d-%06d", now.Year(), now.UnixNano()%1000000)
	}
	return fmt.Sprintf("NS-%d-%06d", now.Year(), n.Int64())
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename strips everything outside a conservative character set and
// caps the length, so user filenames cannot traverse storage paths.
func sanitizeFilename(name string) string {
	if name == "" {
		return "file"
	}
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(cleaned) > 120 {
		cleaned = cleaned[:120]
	}
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

func accountType(form *models.Form) models.AccountType {
	if form == nil {
		return models.AccountTypePF
	}
	return form.AccountType
}
