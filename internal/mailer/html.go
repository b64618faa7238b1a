package mailer

import (
	"fmt"
	"strings"

	"solidum/internal/registration/models"
	"solidum/internal/validate"
)

// Sender display names used by the intake flows.
const (
	FromNameForm    = "Nova Solidum Formulario"
	FromNameCompany = "Nova Solidum Finances"
)

// SubjectRegistration is the back-office notification subject for a complete
// submission with documents.
func SubjectRegistration(t models.AccountType) string {
	return fmt.Sprintf("Novo Registro %s - Nova Solidum Finances", t)
}

// SubjectInitialNotice is the back-office subject for the first step of the
// split flow.
func SubjectInitialNotice(t models.AccountType) string {
	return fmt.Sprintf("Novo Cadastro %s - Nova Solidum Finances", t)
}

// SubjectDocumentsNotice is the back-office subject for documents arriving in
// the second step of the split flow.
func SubjectDocumentsNotice(t models.AccountType) string {
	return fmt.Sprintf("Documentos Recebidos - Registro %s - Nova Solidum Finances", t)
}

const (
	SubjectDocumentsReceived = "Documentos Recebidos - Nova Solidum Finances"
	SubjectUploadLink        = "Cadastro Confirmado - Envie seus Documentos"
)

// CompanyRegistrationHTML renders the back-office notification listing the
// applicant's form data. Every field value is escaped before interpolation.
func CompanyRegistrationHTML(form *models.Form, attachments int) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"></head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f5f5f5;">
<table width="600" cellpadding="0" cellspacing="0" align="center" style="background-color: #ffffff; border-radius: 8px;">
<tr><td style="background: linear-gradient(135deg, #1a2744 0%, #0f1721 100%); padding: 30px 40px;">
<h1 style="margin: 0; color: #ffffff; font-size: 24px; text-align: center;">Nova Solidum Finances</h1>
</td></tr>
<tr><td style="padding: 40px;">
<p style="color: #374151; font-size: 16px;">Olá,</p>
<p style="color: #374151; font-size: 16px;">Nova solicitação de registro KYC recebida:</p>
<table width="100%" style="margin: 30px 0; background-color: #f9fafb; border-left: 4px solid #dc2626;">
<tr><td style="padding: 20px;">
<p style="margin: 0 0 10px 0; color: #6b7280; font-size: 12px; text-transform: uppercase;">Tipo de Cadastro</p>
<p style="margin: 0; color: #1a2744; font-size: 20px; font-weight: 700;">` + string(form.AccountType) + `</p>
</td></tr>
</table>
`)

	b.WriteString(sectionHeader("Dados Principais"))
	b.WriteString(`<table width="100%" cellpadding="0" cellspacing="0" style="margin-bottom: 30px;">` + "\n")
	writeMainRows(&b, form)
	b.WriteString("</table>\n")

	b.WriteString(sectionHeader("Endereço"))
	b.WriteString(`<table width="100%" cellpadding="0" cellspacing="0" style="margin-bottom: 30px;">` + "\n")
	writeAddressRows(&b, form)
	b.WriteString("</table>\n")

	b.WriteString(sectionHeader("Documentos Enviados como Anexos"))
	fmt.Fprintf(&b, `<p style="color: #6b7280; font-size: 13px;">Total de anexos: <strong>%d</strong> arquivo(s)</p>`+"\n", attachments)

	replyTo := validate.EscapeHTML(form.ContactEmail())
	fmt.Fprintf(&b, `<p style="color: #6b7280; font-size: 14px;"><strong>Responder para:</strong> <a href="mailto:%s" style="color: #dc2626;">%s</a></p>`+"\n", replyTo, replyTo)
	b.WriteString(`<p style="color: #6b7280; font-size: 14px;">Atenciosamente,<br><strong style="color: #1a2744;">Equipe Nova Solidum Finances</strong></p>
</td></tr>
</table>
</body>
</html>`)
	return b.String()
}

func sectionHeader(title string) string {
	return `<h2 style="margin: 40px 0 20px 0; color: #1a2744; font-size: 18px; border-bottom: 2px solid #dc2626; padding-bottom: 10px;">` + title + "</h2>\n"
}

func writeMainRows(b *strings.Builder, form *models.Form) {
	switch form.AccountType {
	case models.AccountTypePJ:
		p := form.PJ
		if p == nil {
			return
		}
		row(b, "Razão Social:", p.CompanyName)
		row(b, "CNPJ:", p.CNPJ)
		row(b, "Data Fundação:", p.FoundationDate)
		row(b, "Email:", p.CompanyEmail)
		row(b, "Telefone:", p.CompanyPhone)
	default:
		p := form.PF
		if p == nil {
			return
		}
		row(b, "Nome:", p.FullName)
		row(b, "CPF:", p.CPF)
		row(b, "Data de Nasc.:", p.BirthDate)
		row(b, "Email:", p.Email)
		row(b, "Telefone:", p.Phone)
	}
}

func writeAddressRows(b *strings.Builder, form *models.Form) {
	switch {
	case form.AccountType == models.AccountTypePJ && form.PJ != nil:
		p := form.PJ
		rowAlways(b, "CEP:", p.PJCep)
		row(b, "Logradouro:", p.PJStreet)
		row(b, "Número:", p.PJNumber)
		row(b, "Complemento:", p.PJComplement)
		row(b, "Bairro:", p.PJDistrict)
		row(b, "Cidade:", p.PJCity)
		row(b, "UF:", p.PJState)
	case form.PF != nil && form.PF.IsForeigner:
		p := form.PF
		row(b, "Logradouro:", p.ForeignStreet)
		row(b, "Número:", p.ForeignNumber)
		row(b, "Complemento:", p.ForeignComplement)
		row(b, "Bairro/Distrito:", p.ForeignDistrict)
		row(b, "Cidade:", p.ForeignCity)
		row(b, "Estado/Província:", p.ForeignState)
		rowAlways(b, "CEP/Código Postal:", p.ForeignZipCode)
		row(b, "País:", p.ForeignCountry)
	case form.PF != nil:
		p := form.PF
		rowAlways(b, "CEP:", p.Cep)
		row(b, "Logradouro:", p.Street)
		row(b, "Número:", p.Number)
		row(b, "Complemento:", p.Complement)
		row(b, "Bairro:", p.District)
		row(b, "Cidade:", p.City)
		row(b, "UF:", p.State)
	}
}

// row emits a labeled value, skipping empty values.
func row(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	rowAlways(b, label, value)
}

// rowAlways emits a labeled value even when empty, substituting a placeholder.
func rowAlways(b *strings.Builder, label, value string) {
	if value == "" {
		value = "Não informado"
	}
	fmt.Fprintf(b,
		`<tr><td style="padding: 12px 0; border-bottom: 1px solid #e5e7eb;"><span style="color: #6b7280; font-size: 14px; font-weight: 600; display: inline-block; width: 180px;">%s</span><span style="color: #1a2744; font-size: 14px;">%s</span></td></tr>`+"\n",
		label, validate.EscapeHTML(value))
}

// UserDocumentsReceivedHTML renders the applicant confirmation sent after a
// complete submission.
func UserDocumentsReceivedHTML(userName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #1a2744;">Documentos Recebidos - Nova Solidum Finances</h2>
<p>Olá %s,</p>
<p>Recebemos seus documentos com sucesso! Nossa equipe entrará em contato em breve para finalizar seu cadastro.</p>
<p>Atenciosamente,<br><strong>Equipe Nova Solidum Finances</strong></p>
</div>
</body>
</html>`, validate.EscapeHTML(userName))
}

// UserRegistrationConfirmedHTML renders the applicant confirmation used by
// the email-only intake route.
func UserRegistrationConfirmedHTML(userName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #1a2744;">Registro Confirmado - Nova Solidum Finances</h2>
<p>Olá %s,</p>
<p>Recebemos seu registro com sucesso! Nossa equipe entrará em contato em breve.</p>
<p>Atenciosamente,<br><strong>Equipe Nova Solidum Finances</strong></p>
</div>
</body>
</html>`, validate.EscapeHTML(userName))
}

// UploadLinkHTML renders the first-step confirmation carrying the tokenized
// document upload link.
func UploadLinkHTML(userName, uploadURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #1a2744;">Cadastro Confirmado - Nova Solidum Finances</h2>
<p>Olá %s,</p>
<p>Seu cadastro foi recebido com sucesso!</p>
<p>Para completar seu registro, por favor, envie os documentos necessários através do link abaixo:</p>
<div style="text-align: center; margin: 30px 0;">
<a href="%s" style="background-color: #dc2626; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">Enviar Documentos</a>
</div>
<p style="color: #666; font-size: 12px;">Este link expira em 24 horas.</p>
<p>Atenciosamente,<br><strong>Equipe Nova Solidum Finances</strong></p>
</div>
</body>
</html>`, validate.EscapeHTML(userName), uploadURL)
}

// CompanyInitialNoticeHTML renders the back-office notice for a first-step
// registration without documents.
func CompanyInitialNoticeHTML(t models.AccountType, userName, userEmail string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #1a2744;">Novo Cadastro Recebido - Nova Solidum Finances</h2>
<p>Um novo cadastro foi realizado:</p>
<p><strong>Tipo:</strong> %s</p>
<p><strong>Nome/Empresa:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p>O usuário receberá um email com link para envio de documentos.</p>
</div>
</body>
</html>`, t, validate.EscapeHTML(userName), validate.EscapeHTML(userEmail))
}
