// Package admin implements the back-office query layer: paginated listing
// with filters and free-text search, registration detail with short-lived
// download links, and status triage.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	adminstore "solidum/internal/admin/store"
	"solidum/internal/platform/metrics"
	"solidum/internal/registration/models"
	regstore "solidum/internal/registration/store"
	"solidum/internal/storage"
	"solidum/pkg/apierror"
	"solidum/pkg/platform/sentinel"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Query selects and pages the registration listing.
type Query struct {
	Page     int
	PageSize int
	Type     models.AccountType
	Status   models.Status
	Text     string
	From     *time.Time
	To       *time.Time
}

// Page is one page of the listing.
type Page struct {
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int              `json:"total"`
	Items    []models.Summary `json:"items"`
}

// FileDetail is a stored document plus its short-lived download link. The
// link is null when signing failed; the file row is still shown.
type FileDetail struct {
	ID          string              `json:"id"`
	FileType    string              `json:"file_type"`
	StoragePath string              `json:"storage_path"`
	Metadata    models.FileMetadata `json:"metadata"`
	CreatedAt   time.Time           `json:"created_at"`
	SignedURL   *string             `json:"signed_url"`
}

// Detail is the full registration view.
type Detail struct {
	Registration *models.Registration `json:"registration"`
	Files        []FileDetail         `json:"files"`
}

// Service answers back-office queries.
type Service struct {
	store   regstore.Store
	admins  adminstore.Store
	objects storage.ObjectStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New wires the back-office service.
func New(
	st regstore.Store,
	admins adminstore.Store,
	objects storage.ObjectStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("registration store is required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin user store is required")
	}
	if objects == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{store: st, admins: admins, objects: objects, metrics: m, logger: logger}, nil
}

// Authorize checks that the email belongs to an active back-office user.
func (s *Service) Authorize(ctx context.Context, email string) (*adminstore.User, error) {
	u, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, apierror.New(apierror.CodeForbidden, "Sem permissao", "")
		}
		s.logger.Error("loading admin user", "error", err)
		return nil, apierror.New(apierror.CodeInternal, "Falha ao validar permissao", "")
	}
	return u, nil
}

// List returns one page of registrations, newest first. Type, status and
// date range are pushed down to the store; the free-text query and the
// pagination run over the filtered rows.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	rows, err := s.store.List(ctx, regstore.Filter{
		Type:   q.Type,
		Status: q.Status,
		From:   q.From,
		To:     q.To,
	})
	if err != nil {
		s.logger.Error("listing registrations", "error", err)
		return nil, apierror.New(apierror.CodeInternal, "Falha ao carregar cadastros", "")
	}

	summaries := make([]models.Summary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, models.Summarize(&rows[i]))
	}

	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		matched := summaries[:0]
		for _, sum := range summaries {
			if strings.Contains(strings.ToLower(sum.SearchText()), text) {
				matched = append(matched, sum)
			}
		}
		summaries = matched
	}

	total := len(summaries)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return &Page{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		Items:    summaries[start:end],
	}, nil
}

// Detail loads one registration with its files and a signed download link
// per file. A signing failure downgrades that file's link to null instead of
// failing the whole view.
func (s *Service) Detail(ctx context.Context, id string) (*Detail, error) {
	reg, err := s.store.GetRegistration(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, apierror.New(apierror.CodeNotFound, "Cadastro nao encontrado", "")
		}
		s.logger.Error("loading registration", "error", err, "registration_id", id)
		return nil, apierror.New(apierror.CodeInternal, "Falha ao carregar cadastro", "")
	}

	files, err := s.store.ListFiles(ctx, id)
	if err != nil {
		s.logger.Error("loading registration files", "error", err, "registration_id", id)
		return nil, apierror.New(apierror.CodeInternal, "Falha ao carregar documentos", "")
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})

	details := make([]FileDetail, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		details[i] = FileDetail{
			ID:          f.ID,
			FileType:    f.FileType,
			StoragePath: f.StoragePath,
			Metadata:    f.Metadata,
			CreatedAt:   f.CreatedAt,
		}
		g.Go(func() error {
			url, err := s.objects.SignedURL(gctx, f.StoragePath, storage.SignedURLTTL)
			if err != nil {
				s.logger.Warn("signing download link", "error", err, "storage_path", f.StoragePath)
				return nil
			}
			details[i].SignedURL = &url
			return nil
		})
	}
	_ = g.Wait()

	return &Detail{Registration: reg, Files: details}, nil
}

// UpdateStatus overwrites the triage status. Any valid status may replace
// any other.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Registration, error) {
	if !status.IsValid() {
		return nil, apierror.New(apierror.CodeBadRequest, "Status invalido", "")
	}
	reg, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, apierror.New(apierror.CodeNotFound, "Cadastro nao encontrado", "")
		}
		s.logger.Error("updating status", "error", err, "registration_id", id)
		return nil, apierror.New(apierror.CodeInternal, "Falha ao atualizar status", "")
	}
	if s.metrics != nil {
		s.metrics.StatusUpdates.WithLabelValues(string(status)).Inc()
	}
	s.logger.Info("registration status updated",
		"registration_id", id, "status", status)
	return reg, nil
}
