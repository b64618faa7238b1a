// Package validate holds the pure field validators used by the intake
// pipeline: Brazilian taxpayer checksums, email/phone shape checks and HTML
// escaping for strings that end up embedded in notification emails.
package validate

import (
	"regexp"
	"strings"
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneCharsRe = regexp.MustCompile(`^[\d\s()\-+]+$`)
	nonDigitsRe  = regexp.MustCompile(`\D`)
)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return nonDigitsRe.ReplaceAllString(s, "")
}

// CPF validates a Brazilian individual taxpayer number: exactly 11 digits
// after stripping formatting, not all identical, and both modulo-11 check
// digits correct (weights 10..2 and 11..2; remainder below 2 maps to 0).
func CPF(cpf string) bool {
	cpf = Digits(cpf)
	if len(cpf) != 11 || allSame(cpf) {
		return false
	}
	return checkDigit(cpf[:9], 10) == int(cpf[9]-'0') &&
		checkDigit(cpf[:10], 11) == int(cpf[10]-'0')
}

// checkDigit computes a CPF check digit over the prefix with descending
// weights starting at firstWeight.
func checkDigit(prefix string, firstWeight int) int {
	sum := 0
	for i, c := range prefix {
		sum += int(c-'0') * (firstWeight - i)
	}
	d := 11 - sum%11
	if d >= 10 {
		return 0
	}
	return d
}

// CNPJ validates a Brazilian company taxpayer number: exactly 14 digits after
// stripping formatting, not all identical, and both check digits correct under
// the CNPJ weight cycle (9 down to 2, repeating, applied right to left).
func CNPJ(cnpj string) bool {
	cnpj = Digits(cnpj)
	if len(cnpj) != 14 || allSame(cnpj) {
		return false
	}
	return cnpjDigit(cnpj[:12]) == int(cnpj[12]-'0') &&
		cnpjDigit(cnpj[:13]) == int(cnpj[13]-'0')
}

func cnpjDigit(prefix string) int {
	weight := len(prefix) - 7 // 5 for the first digit, 6 for the second
	sum := 0
	for _, c := range prefix {
		sum += int(c-'0') * weight
		weight--
		if weight < 2 {
			weight = 9
		}
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// Email accepts addresses of the shape local@domain.tld with a domain of at
// least four characters containing a dot.
func Email(email string) bool {
	if email == "" || !emailRe.MatchString(email) {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return len(domain) >= 4 && strings.Contains(domain, ".")
}

// Phone accepts Brazilian numbers with or without the country code: only
// digits and common formatting characters, 10 to 13 digits total.
func Phone(phone string) bool {
	if phone == "" || !phoneCharsRe.MatchString(phone) {
		return false
	}
	n := len(Digits(phone))
	return n >= 10 && n <= 13
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"/", "&#x2F;",
)

// EscapeHTML maps the characters meaningful in HTML to their entities. Every
// user-supplied string is escaped before being embedded in generated email
// bodies.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// MaxLength reports whether s fits within max characters.
func MaxLength(s string, max int) bool {
	return len(s) <= max
}
