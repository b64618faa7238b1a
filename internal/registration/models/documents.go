package models

// Upload form field names for identity documents. The set of expected fields
// and the required subset depend on the account type.
const (
	FieldDocumentFront         = "documentFront"
	FieldDocumentBack          = "documentBack"
	FieldSelfie                = "selfie"
	FieldProofOfAddress        = "proofOfAddress"
	FieldArticlesOfAssociation = "articlesOfAssociation"
	FieldCNPJCard              = "cnpjCard"
	FieldAdminIDFront          = "adminIdFront"
	FieldAdminIDBack           = "adminIdBack"
	FieldCompanyProofOfAddress = "companyProofOfAddress"
	FieldECNPJCertificate      = "ecnpjCertificate"
)

// AllDocumentFields lists every document field the upload endpoints accept.
var AllDocumentFields = []string{
	FieldDocumentFront,
	FieldDocumentBack,
	FieldSelfie,
	FieldProofOfAddress,
	FieldArticlesOfAssociation,
	FieldCNPJCard,
	FieldAdminIDFront,
	FieldAdminIDBack,
	FieldCompanyProofOfAddress,
	FieldECNPJCertificate,
}

var fileTypeByField = map[string]string{
	FieldDocumentFront:         "RG_FRENTE",
	FieldDocumentBack:          "RG_VERSO",
	FieldSelfie:                "SELFIE",
	FieldProofOfAddress:        "COMPROVANTE_ENDERECO",
	FieldArticlesOfAssociation: "CONTRATO_SOCIAL",
	FieldCNPJCard:              "CARTAO_CNPJ",
	FieldAdminIDFront:          "ADMIN_RG_FRENTE",
	FieldAdminIDBack:           "ADMIN_RG_VERSO",
	FieldCompanyProofOfAddress: "COMPROVANTE_ENDERECO_EMPRESA",
	FieldECNPJCertificate:      "CERTIFICADO_ECNPJ",
}

// FileTypeFor maps an upload field name to its stored document type tag.
// Unknown fields map to themselves.
func FileTypeFor(field string) string {
	if t, ok := fileTypeByField[field]; ok {
		return t
	}
	return field
}

// RequiredDocumentFields returns the fields that must be present for the
// account type: identity front and back for PF, the administrator's for PJ.
func RequiredDocumentFields(t AccountType) []string {
	if t == AccountTypePJ {
		return []string{FieldAdminIDFront, FieldAdminIDBack}
	}
	return []string{FieldDocumentFront, FieldDocumentBack}
}

// DocumentFields returns, in processing order, the fields the pipeline accepts
// for the account type.
func DocumentFields(t AccountType) []string {
	if t == AccountTypePJ {
		return []string{
			FieldArticlesOfAssociation,
			FieldCNPJCard,
			FieldAdminIDFront,
			FieldAdminIDBack,
			FieldCompanyProofOfAddress,
			FieldECNPJCertificate,
		}
	}
	return []string{
		FieldDocumentFront,
		FieldDocumentBack,
		FieldSelfie,
		FieldProofOfAddress,
	}
}
