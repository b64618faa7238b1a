package validate

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorsSuite struct {
	suite.Suite
}

func TestValidatorsSuite(t *testing.T) {
	suite.Run(t, new(ValidatorsSuite))
}

func (s *ValidatorsSuite) TestCPF() {
	s.Run("valid bare digits", func() {
		s.True(CPF("52998224725"))
	})

	s.Run("valid with formatting", func() {
		s.True(CPF("529.982.247-25"))
	})

	s.Run("check digit mutation rejected", func() {
		// Flipping any single digit of a valid CPF must fail the checksum.
		valid := "52998224725"
		for i := 0; i < len(valid); i++ {
			mutated := []byte(valid)
			mutated[i] = '0' + (mutated[i]-'0'+1)%10
			s.False(CPF(string(mutated)), "position %d", i)
		}
	})

	s.Run("all identical digits rejected", func() {
		s.False(CPF("11111111111"))
		s.False(CPF("000.000.000-00"))
	})

	s.Run("wrong length rejected", func() {
		s.False(CPF(""))
		s.False(CPF("5299822472"))
		s.False(CPF("529982247255"))
	})
}

func (s *ValidatorsSuite) TestCNPJ() {
	s.Run("valid bare digits", func() {
		s.True(CNPJ("11222333000181"))
	})

	s.Run("valid with formatting", func() {
		s.True(CNPJ("11.222.333/0001-81"))
	})

	s.Run("check digit mutation rejected", func() {
		valid := "11222333000181"
		for i := 0; i < len(valid); i++ {
			mutated := []byte(valid)
			mutated[i] = '0' + (mutated[i]-'0'+1)%10
			s.False(CNPJ(string(mutated)), "position %d", i)
		}
	})

	s.Run("all identical digits rejected", func() {
		s.False(CNPJ("22222222222222"))
	})

	s.Run("wrong length rejected", func() {
		s.False(CNPJ(""))
		s.False(CNPJ("1122233300018"))
	})
}

func (s *ValidatorsSuite) TestEmail() {
	s.Run("accepts plain addresses", func() {
		s.True(Email("maria@example.com"))
		s.True(Email("joao.silva+tag@sub.example.com.br"))
	})

	s.Run("rejects malformed addresses", func() {
		s.False(Email(""))
		s.False(Email("not-an-email"))
		s.False(Email("a b@example.com"))
		s.False(Email("two@@example.com"))
		s.False(Email("missing@dot"))
	})

	s.Run("rejects too-short domains", func() {
		s.False(Email("a@b.c"))
		s.True(Email("a@b.co"))
	})
}

func (s *ValidatorsSuite) TestPhone() {
	s.Run("accepts formatted brazilian numbers", func() {
		s.True(Phone("(11) 98765-4321"))
		s.True(Phone("+55 11 98765-4321"))
		s.True(Phone("1187654321"))
	})

	s.Run("rejects digit counts outside range", func() {
		s.False(Phone("123456789"))
		s.False(Phone("12345678901234"))
	})

	s.Run("rejects letters and empty input", func() {
		s.False(Phone(""))
		s.False(Phone("11 abcde-4321"))
	})
}

func (s *ValidatorsSuite) TestEscapeHTML() {
	s.Equal("&lt;b&gt;negrito&lt;&#x2F;b&gt;", EscapeHTML("<b>negrito</b>"))
	s.Equal("a&amp;b", EscapeHTML("a&b"))
	s.Equal("&quot;x&quot; &#039;y&#039;", EscapeHTML(`"x" 'y'`))
	s.Equal("sem mudanca", EscapeHTML("sem mudanca"))
}

func (s *ValidatorsSuite) TestDigits() {
	s.Equal("5511987654321", Digits("+55 (11) 98765-4321"))
	s.Equal("", Digits("abc"))
	s.Equal("12345678901", Digits("123.456.789-01"))
}
