package models

import (
	"encoding/json"
	"time"
)

// AccountType discriminates the two registration payload variants.
type AccountType string

const (
	AccountTypePF AccountType = "PF" // pessoa física (individual)
	AccountTypePJ AccountType = "PJ" // pessoa jurídica (business)
)

// Status is the registration triage state. Any status may move to any other;
// there is no transition graph.
type Status string

const (
	StatusNovo      Status = "NOVO"
	StatusEmAnalise Status = "EM_ANALISE"
	StatusAprovado  Status = "APROVADO"
	StatusReprovado Status = "REPROVADO"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNovo, StatusEmAnalise, StatusAprovado, StatusReprovado:
		return true
	}
	return false
}

// Registration is the persisted intake record. Created once by the intake
// pipeline; only status is ever mutated, and only by an admin action.
type Registration struct {
	ID             string    `json:"id"`
	Type           AccountType `json:"type"`
	Payload        *Form     `json:"payload"`
	Status         Status    `json:"status"`
	ProtocolNumber string    `json:"protocol_number"`
	CreatedAt      time.Time `json:"created_at"`
}

// FileMetadata describes an uploaded document as it was received.
type FileMetadata struct {
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name"`
}

// File is a stored document belonging to a registration. Created once at
// intake; never mutated; deleted only when intake rolls back.
type File struct {
	ID             string       `json:"id"`
	RegistrationID string       `json:"registration_id"`
	FileType       string       `json:"file_type"`
	StoragePath    string       `json:"storage_path"`
	Metadata       FileMetadata `json:"metadata"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Address is the nested address block some clients send instead of (or in
// addition to) the flat address fields.
type Address struct {
	Cep        string `json:"cep,omitempty"`
	ZipCode    string `json:"zipCode,omitempty"`
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	IsForeign  bool   `json:"isForeign,omitempty"`
}

// MajorityAdmin identifies the controlling administrator of a PJ registration.
type MajorityAdmin struct {
	Name  string `json:"name,omitempty"`
	CPF   string `json:"cpf,omitempty"`
	Email string `json:"email,omitempty"`
}

// PFPayload carries the individual registration fields. Flat address fields
// take precedence over the nested address block; normalize resolves the
// fallbacks once at decode time.
type PFPayload struct {
	FullName    string `json:"fullName,omitempty"`
	CPF         string `json:"cpf,omitempty"`
	RG          string `json:"rg,omitempty"`
	CNH         string `json:"cnh,omitempty"`
	BirthDate   string `json:"birthDate,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	PEPStatus   bool   `json:"pepStatus,omitempty"`
	PEPPosition string `json:"pepPosition,omitempty"`
	IsForeigner bool   `json:"isForeigner,omitempty"`

	Cep        string `json:"cep,omitempty"`
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`

	ForeignZipCode    string `json:"foreignZipCode,omitempty"`
	ForeignStreet     string `json:"foreignStreet,omitempty"`
	ForeignNumber     string `json:"foreignNumber,omitempty"`
	ForeignComplement string `json:"foreignComplement,omitempty"`
	ForeignDistrict   string `json:"foreignDistrict,omitempty"`
	ForeignCity       string `json:"foreignCity,omitempty"`
	ForeignState      string `json:"foreignState,omitempty"`
	ForeignCountry    string `json:"foreignCountry,omitempty"`

	Address *Address `json:"address,omitempty"`
}

func (p *PFPayload) normalize() {
	a := p.Address
	if a == nil {
		return
	}
	if a.IsForeign {
		p.IsForeigner = true
	}
	if p.IsForeigner {
		fallback(&p.ForeignZipCode, a.ZipCode)
		fallback(&p.ForeignStreet, a.Street)
		fallback(&p.ForeignNumber, a.Number)
		fallback(&p.ForeignComplement, a.Complement)
		fallback(&p.ForeignDistrict, a.District)
		fallback(&p.ForeignCity, a.City)
		fallback(&p.ForeignState, a.State)
		fallback(&p.ForeignCountry, a.Country)
		return
	}
	fallback(&p.Cep, a.Cep)
	fallback(&p.Street, a.Street)
	fallback(&p.Number, a.Number)
	fallback(&p.Complement, a.Complement)
	fallback(&p.District, a.District)
	fallback(&p.City, a.City)
	fallback(&p.State, a.State)
}

// PJPayload carries the business registration fields.
type PJPayload struct {
	CompanyName    string         `json:"companyName,omitempty"`
	TradeName      string         `json:"tradeName,omitempty"`
	CNPJ           string         `json:"cnpj,omitempty"`
	FoundationDate string         `json:"foundationDate,omitempty"`
	CompanyEmail   string         `json:"companyEmail,omitempty"`
	CompanyPhone   string         `json:"companyPhone,omitempty"`
	MajorityAdmin  *MajorityAdmin `json:"majorityAdmin,omitempty"`

	PJCep        string `json:"pjCep,omitempty"`
	PJStreet     string `json:"pjStreet,omitempty"`
	PJNumber     string `json:"pjNumber,omitempty"`
	PJComplement string `json:"pjComplement,omitempty"`
	PJDistrict   string `json:"pjDistrict,omitempty"`
	PJCity       string `json:"pjCity,omitempty"`
	PJState      string `json:"pjState,omitempty"`

	Address *Address `json:"address,omitempty"`
}

func (p *PJPayload) normalize() {
	a := p.Address
	if a == nil {
		return
	}
	fallback(&p.PJCep, a.Cep)
	fallback(&p.PJStreet, a.Street)
	fallback(&p.PJNumber, a.Number)
	fallback(&p.PJComplement, a.Complement)
	fallback(&p.PJDistrict, a.District)
	fallback(&p.PJCity, a.City)
	fallback(&p.PJState, a.State)
}

func fallback(dst *string, alt string) {
	if *dst == "" {
		*dst = alt
	}
}

// Form is the submitted registration payload, a tagged union over the two
// account type variants. Exactly one of PF and PJ is non-nil after decoding.
type Form struct {
	AccountType  AccountType
	SubmissionID string

	PF *PFPayload
	PJ *PJPayload
}

type formHead struct {
	AccountType  AccountType `json:"accountType"`
	SubmissionID string      `json:"submissionId"`
}

// UnmarshalJSON decodes the flat client payload into the variant selected by
// the accountType discriminant. A missing or unknown discriminant defaults to
// PF, matching the public form behavior.
func (f *Form) UnmarshalJSON(b []byte) error {
	var head formHead
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	f.SubmissionID = head.SubmissionID
	if head.AccountType == AccountTypePJ {
		f.AccountType = AccountTypePJ
		f.PJ = &PJPayload{}
		if err := json.Unmarshal(b, f.PJ); err != nil {
			return err
		}
		f.PJ.normalize()
		return nil
	}
	f.AccountType = AccountTypePF
	f.PF = &PFPayload{}
	if err := json.Unmarshal(b, f.PF); err != nil {
		return err
	}
	f.PF.normalize()
	return nil
}

// MarshalJSON re-flattens the variant for persistence, preserving the original
// wire field names.
func (f Form) MarshalJSON() ([]byte, error) {
	if f.AccountType == AccountTypePJ && f.PJ != nil {
		return json.Marshal(struct {
			formHead
			*PJPayload
		}{formHead{f.AccountType, f.SubmissionID}, f.PJ})
	}
	return json.Marshal(struct {
		formHead
		*PFPayload
	}{formHead{f.AccountType, f.SubmissionID}, f.PF})
}

// ContactEmail returns the address confirmations are sent to.
func (f *Form) ContactEmail() string {
	if f.AccountType == AccountTypePJ && f.PJ != nil {
		return f.PJ.CompanyEmail
	}
	if f.PF != nil {
		return f.PF.Email
	}
	return ""
}

// ContactName returns the submitter's display name.
func (f *Form) ContactName() string {
	if f.AccountType == AccountTypePJ && f.PJ != nil {
		return f.PJ.CompanyName
	}
	if f.PF != nil {
		return f.PF.FullName
	}
	return ""
}
