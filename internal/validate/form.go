package validate

import (
	"strings"

	"solidum/internal/registration/models"
)

// Validation error messages shown to the end user. They intentionally expose
// nothing about internal state.
const (
	msgMissingRequired      = "Campos obrigatórios faltando"
	msgInvalidEmail         = "Email inválido"
	msgInvalidPhone         = "Telefone inválido"
	msgInvalidCPF           = "CPF inválido"
	msgInvalidCNPJ          = "CNPJ inválido"
	msgInvalidCompanyEmail  = "Email da empresa inválido"
	msgInvalidCompanyPhone  = "Telefone da empresa inválido"
	msgInvalidAdminCPF      = "CPF do administrador inválido"
	msgIncompleteAddress    = "Por favor, preencha todos os campos obrigatórios do endereço (CEP, Logradouro, Número, Bairro, Cidade e UF)"
	msgIncompleteForeignAddress = "Por favor, preencha todos os campos obrigatórios do endereço (CEP/Código Postal, Logradouro, Número, Cidade e Estado/Província)"
)

const maxNameLength = 200

// Form validates and sanitizes a submitted registration form. On success it
// returns a copy with the HTML-sensitive string fields escaped; on failure it
// returns the list of user-facing error messages and a nil form.
func Form(f *models.Form) (*models.Form, []string) {
	if f == nil {
		return nil, []string{msgMissingRequired}
	}
	if f.AccountType == models.AccountTypePJ {
		return validatePJ(f)
	}
	return validatePF(f)
}

func validatePF(f *models.Form) (*models.Form, []string) {
	p := f.PF
	if p == nil || blank(p.FullName) || blank(p.Email) || blank(p.Phone) {
		return nil, []string{msgMissingRequired}
	}

	var errs []string
	if !MaxLength(p.FullName, maxNameLength) {
		errs = append(errs, "Nome muito longo (máx: 200 caracteres)")
	}
	if !Email(p.Email) {
		errs = append(errs, msgInvalidEmail)
	}
	if !Phone(p.Phone) {
		errs = append(errs, msgInvalidPhone)
	}
	// CPF is optional for PF; validate only when digits were provided.
	if digits := Digits(p.CPF); digits != "" && !CPF(digits) {
		errs = append(errs, msgInvalidCPF)
	}

	if p.IsForeigner {
		if blank(p.ForeignZipCode) || blank(p.ForeignStreet) || blank(p.ForeignNumber) ||
			blank(p.ForeignCity) || blank(p.ForeignState) {
			errs = append(errs, msgIncompleteForeignAddress)
		}
	} else {
		if blank(p.Cep) || blank(p.Street) || blank(p.Number) ||
			blank(p.District) || blank(p.City) || blank(p.State) {
			errs = append(errs, msgIncompleteAddress)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	clean := *p
	clean.FullName = EscapeHTML(p.FullName)
	clean.Email = EscapeHTML(p.Email)
	clean.RG = EscapeHTML(p.RG)
	clean.CNH = EscapeHTML(p.CNH)
	return &models.Form{
		AccountType:  models.AccountTypePF,
		SubmissionID: f.SubmissionID,
		PF:           &clean,
	}, nil
}

func validatePJ(f *models.Form) (*models.Form, []string) {
	p := f.PJ
	if p == nil || blank(p.CompanyName) || blank(p.CompanyEmail) ||
		blank(p.CompanyPhone) || blank(p.CNPJ) {
		return nil, []string{msgMissingRequired}
	}

	var errs []string
	if !MaxLength(p.CompanyName, maxNameLength) {
		errs = append(errs, "Razão Social muito longo (máx: 200 caracteres)")
	}
	if !Email(p.CompanyEmail) {
		errs = append(errs, msgInvalidCompanyEmail)
	}
	if !Phone(p.CompanyPhone) {
		errs = append(errs, msgInvalidCompanyPhone)
	}
	if !CNPJ(p.CNPJ) {
		errs = append(errs, msgInvalidCNPJ)
	}
	if p.MajorityAdmin != nil && p.MajorityAdmin.CPF != "" && !CPF(p.MajorityAdmin.CPF) {
		errs = append(errs, msgInvalidAdminCPF)
	}

	if blank(p.PJCep) || blank(p.PJStreet) || blank(p.PJNumber) ||
		blank(p.PJDistrict) || blank(p.PJCity) || blank(p.PJState) {
		errs = append(errs, msgIncompleteAddress)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	clean := *p
	clean.CompanyName = EscapeHTML(p.CompanyName)
	clean.CompanyEmail = EscapeHTML(p.CompanyEmail)
	clean.TradeName = EscapeHTML(p.TradeName)
	if p.MajorityAdmin != nil {
		admin := *p.MajorityAdmin
		admin.Name = EscapeHTML(admin.Name)
		admin.Email = EscapeHTML(admin.Email)
		clean.MajorityAdmin = &admin
	}
	return &models.Form{
		AccountType:  models.AccountTypePJ,
		SubmissionID: f.SubmissionID,
		PJ:           &clean,
	}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
