package handler

import (
	"fmt"
	"io"
	"net/http"

	"solidum/internal/filecheck"
	"solidum/internal/registration/models"
	"solidum/internal/twostep"
	"solidum/pkg/apierror"
)

const (
	// maxFileSize caps each uploaded document.
	maxFileSize = 10 << 20
	// maxFormSize caps the whole multipart body.
	maxFormSize = 50 << 20
)

// parseDocumentsForm decodes the second step request: the token (header,
// form field, then query string, in that order) and one file per known
// document field.
func parseDocumentsForm(w http.ResponseWriter, r *http.Request) (string, []twostep.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		return "", nil, apierror.New(apierror.CodeBadRequest,
			"Erro no upload de arquivos", "Falha ao processar arquivos")
	}

	tok := r.Header.Get("x-auth-token")
	if tok == "" {
		tok = r.PostFormValue("token")
	}
	if tok == "" {
		tok = r.URL.Query().Get("token")
	}

	var uploads []twostep.Upload
	for _, field := range models.AllDocumentFields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		header := headers[0]

		if header.Size > maxFileSize {
			return "", nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos",
				"O arquivo excede o limite de 10MB").WithField(field)
		}

		mimeType := header.Header.Get("Content-Type")
		if !filecheck.AllowedMIME(field, mimeType) {
			return "", nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos",
				fmt.Sprintf("Tipo de arquivo nao permitido: %s. Permitidos: JPG, PNG, PDF, PFX", mimeType)).WithField(field)
		}

		f, err := header.Open()
		if err != nil {
			return "", nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos", "Falha ao processar arquivos").WithField(field)
		}
		content, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
		_ = f.Close()
		if err != nil {
			return "", nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos", "Falha ao processar arquivos").WithField(field)
		}
		if len(content) > maxFileSize {
			return "", nil, apierror.New(apierror.CodeBadRequest,
				"Erro no upload de arquivos",
				"O arquivo excede o limite de 10MB").WithField(field)
		}

		uploads = append(uploads, twostep.Upload{
			Field:    field,
			Filename: header.Filename,
			MimeType: mimeType,
			Content:  content,
		})
	}
	return tok, uploads, nil
}
