// Package filecheck verifies that uploaded document bytes match the MIME type
// declared by the client, guarding against renamed executables and other
// mislabeled uploads.
package filecheck

import (
	"bytes"

	"solidum/internal/registration/models"
)

// signatures maps an accepted MIME type to the magic byte prefixes that are
// valid for it.
var signatures = map[string][][]byte{
	"image/jpeg":      {{0xFF, 0xD8, 0xFF}},
	"image/jpg":       {{0xFF, 0xD8, 0xFF}},
	"image/png":       {{0x89, 0x50, 0x4E, 0x47}},
	"application/pdf": {{0x25, 0x50, 0x44, 0x46}},
}

// AllowedMIME reports whether a declared content type is acceptable for the
// given upload field. PKCS#12 bundles are only legal on the e-CNPJ
// certificate field, where browsers commonly send them as octet-stream.
func AllowedMIME(field, mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/jpg", "application/pdf":
		return true
	case "application/x-pkcs12", "application/octet-stream":
		return field == models.FieldECNPJCertificate
	}
	return false
}

// Matches reports whether the file content starts with a magic byte signature
// consistent with the declared MIME type. Files shorter than four bytes are
// always rejected. The e-CNPJ certificate field is exempt when declared as a
// PKCS#12 bundle, since PFX containers have no stable leading signature.
func Matches(content []byte, mimeType, field string) bool {
	if len(content) < 4 {
		return false
	}
	if field == models.FieldECNPJCertificate &&
		(mimeType == "application/x-pkcs12" || mimeType == "application/octet-stream") {
		return true
	}
	sigs, ok := signatures[mimeType]
	if !ok {
		return false
	}
	for _, sig := range sigs {
		if bytes.HasPrefix(content, sig) {
			return true
		}
	}
	return false
}
