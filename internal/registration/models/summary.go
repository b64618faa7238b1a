package models

import "time"

// Summary is the flattened row shape the admin listing returns.
type Summary struct {
	ID             string      `json:"id"`
	ProtocolNumber string      `json:"protocol_number"`
	Type           AccountType `json:"type"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	Name           string      `json:"name"`
	CpfCnpj        string      `json:"cpf_cnpj"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	City           string      `json:"city"`
	State          string      `json:"state"`
}

// Summarize flattens a registration for listing. Missing payload fields come
// out as empty strings rather than being omitted.
func Summarize(r *Registration) Summary {
	s := Summary{
		ID:             r.ID,
		ProtocolNumber: r.ProtocolNumber,
		Type:           r.Type,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
	}
	if r.Payload == nil {
		return s
	}
	switch {
	case r.Type == AccountTypePJ && r.Payload.PJ != nil:
		pj := r.Payload.PJ
		s.Name = pj.CompanyName
		s.CpfCnpj = pj.CNPJ
		s.Email = pj.CompanyEmail
		s.Phone = pj.CompanyPhone
		s.City = pj.PJCity
		s.State = pj.PJState
	case r.Payload.PF != nil:
		pf := r.Payload.PF
		s.Name = pf.FullName
		s.CpfCnpj = pf.CPF
		s.Email = pf.Email
		s.Phone = pf.Phone
		s.City = pf.City
		s.State = pf.State
		if s.City == "" {
			s.City = pf.ForeignCity
		}
		if s.State == "" {
			s.State = pf.ForeignState
		}
	}
	return s
}

// SearchText concatenates the fields free-text admin queries match against.
func (s Summary) SearchText() string {
	return s.Name + " " + s.CpfCnpj + " " + s.Email + " " + s.Phone
}
