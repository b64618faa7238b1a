package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"solidum/internal/filecheck"
	"solidum/internal/registration/models"
	"solidum/internal/registration/service"
	"solidum/pkg/apierror"
)

const (
	// maxFileSize caps each uploaded document.
	maxFileSize = 10 << 20
	// maxFormSize caps the whole multipart body.
	maxFormSize = 50 << 20
)

// parseIntakeForm decodes the multipart intake request: the honeypot field,
// the JSON form payload, and one file per known document field. Unknown file
// fields are ignored.
func parseIntakeForm(w http.ResponseWriter, r *http.Request) (*models.Form, []service.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		return nil, nil, apierror.New(apierror.CodeBadRequest,
			"Erro no upload de arquivos", "Falha ao processar arquivos")
	}

	// Bots fill every visible field; humans never see this one.
	if r.FormValue("honeypot") != "" {
		return nil, nil, apierror.New(apierror.CodeBadRequest,
			"Requisicao invalida", "Por favor, tente novamente")
	}

	raw := r.FormValue("formData")
	if raw == "" {
		raw = "{}"
	}
	var form models.Form
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return nil, nil, apierror.New(apierror.CodeBadRequest,
			"Dados invalidos", "Formato de dados incorreto")
	}

	var uploads []service.Upload
	for _, field := range models.AllDocumentFields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		header := headers[0]

		if header.Size > maxFileSize {
			return nil, nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos",
				"O arquivo excede o limite de 10MB").WithField(field)
		}

		mimeType := header.Header.Get("Content-Type")
		if !filecheck.AllowedMIME(field, mimeType) {
			return nil, nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos",
				fmt.Sprintf("Tipo de arquivo nao permitido: %s. Permitidos: JPG, PNG, PDF, PFX", mimeType)).WithField(field)
		}

		f, err := header.Open()
		if err != nil {
			return nil, nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos", "Falha ao processar arquivos").WithField(field)
		}
		content, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
		_ = f.Close()
		if err != nil {
			return nil, nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos", "Falha ao processar arquivos").WithField(field)
		}
		if len(content) > maxFileSize {
			return nil, nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos",
				"O arquivo excede o limite de 10MB").WithField(field)
		}

		uploads = append(uploads, service.Upload{
			Field:    field,
			Filename: header.Filename,
			MimeType: mimeType,
			Content:  content,
		})
	}
	return &form, uploads, nil
}
