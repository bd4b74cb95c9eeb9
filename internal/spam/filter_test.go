package spam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	f := NewFilter()

	t.Run("flags scam phrasings", func(t *testing.T) {
		spammy := []string{
			"GANA DINERO desde tu casa hoy mismo",
			"dinero fácil y rápido sin esfuerzo",
			"Inversión garantizada, duplica tu capital",
			"criptomonedas gratis por registrarte",
			"multiplica tu dinero en 24 horas",
			"préstamos sin buro de crédito",
			"Felicidades, has ganado un premio!!!",
			"haz click aquí bit.ly/premio",
			"mira esto tinyurl.com/xyz123",
			"trabaja desde casa y gana $500 diarios",
		}
		for _, text := range spammy {
			assert.True(t, f.IsSpam(text), "expected spam: %q", text)
			assert.NotEmpty(t, f.Match(text))
		}
	})

	t.Run("passes legitimate customer messages", func(t *testing.T) {
		clean := []string{
			"hola, quiero hacer un pedido",
			"¿cuánto cuesta el envío?",
			"nuevo pedido #1234",
			"ya hice la transferencia del dinero",
			"mi dirección es Av. Juárez 100",
			"",
			"   ",
		}
		for _, text := range clean {
			assert.False(t, f.IsSpam(text), "expected clean: %q", text)
		}
	})

	t.Run("match reports the pattern for the audit log", func(t *testing.T) {
		pattern := f.Match("gana dinero rapidisimo")
		assert.Contains(t, pattern, "gana")
	})
}
