package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and trims", "  HOLA  ", "hola"},
		{"strips diacritics", "¿Dónde está mi pedido?", "donde esta mi pedido"},
		{"strips emoji and punctuation", "hola!!! 👋🙂", "hola"},
		{"collapses whitespace", "buenas   tardes \t amigo", "buenas tardes amigo"},
		{"keeps digits", "pedido 1234", "pedido 1234"},
		{"empty input", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestIsGreeting(t *testing.T) {
	assert.True(t, isGreeting("hola"))
	assert.True(t, isGreeting("buenas tardes"))
	assert.True(t, isGreeting("hola quiero pedir"))
	assert.True(t, isGreeting("buenos dias senorita"))

	assert.False(t, isGreeting(""))
	assert.False(t, isGreeting("quiero hacer un pedido"))
	assert.False(t, isGreeting("1234"))
}

func TestMatchOrderMarker(t *testing.T) {
	assert.Equal(t, "1234", matchOrderMarker("Nuevo pedido #1234"))
	assert.Equal(t, "0042", matchOrderMarker("nuevo pedido #0042 confirmado"))

	assert.Empty(t, matchOrderMarker("pedido #1234"))
	assert.Empty(t, matchOrderMarker("nuevo pedido #12"))
	assert.Empty(t, matchOrderMarker("nuevo pedido 1234"))
}

func TestIsOrderCode(t *testing.T) {
	assert.True(t, isOrderCode("1234"))
	assert.True(t, isOrderCode("  0042  "))

	assert.False(t, isOrderCode("123"))
	assert.False(t, isOrderCode("12345"))
	assert.False(t, isOrderCode("12a4"))
}
