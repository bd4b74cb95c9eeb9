package conversation

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	orderMarkerRe = regexp.MustCompile(`(?i)nuevo pedido #(\d{4})`)
	orderCodeRe   = regexp.MustCompile(`^\d{4}$`)

	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

var greetings = map[string]bool{
	"hola":         true,
	"holi":         true,
	"hey":          true,
	"hello":        true,
	"hi":           true,
	"buenas":       true,
	"buen dia":     true,
	"buenos dias":  true,
	"buenas tardes": true,
	"buenas noches": true,
	"saludos":      true,
	"que tal":      true,
}

// Normalize lowercases, strips diacritics and anything that is not a
// letter, digit or space, and collapses whitespace. Menu matching and
// greeting detection run on this form; flow handlers that need the raw
// text (addresses) use the original.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))

	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func isGreeting(normalized string) bool {
	if greetings[normalized] {
		return true
	}
	// "hola, quiero pedir" still greets; match on the first two words too.
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return false
	}
	if greetings[words[0]] {
		return true
	}
	if len(words) >= 2 && greetings[words[0]+" "+words[1]] {
		return true
	}
	return false
}

// matchOrderMarker extracts the short code from a trusted checkout-flow
// marker message, or returns "".
func matchOrderMarker(text string) string {
	m := orderMarkerRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func isOrderCode(text string) bool {
	return orderCodeRe.MatchString(strings.TrimSpace(text))
}

func isAffirmative(normalized string) bool {
	switch normalized {
	case "si", "sii", "yes", "ok", "dale", "confirmo", "confirmar", "claro":
		return true
	}
	return false
}

func isNegative(normalized string) bool {
	switch normalized {
	case "no", "cancelar", "cancela", "cancelo":
		return true
	}
	return false
}

func isCancel(normalized string) bool {
	return normalized == "cancelar" || normalized == "cancela" || normalized == "cancelo"
}

func isChangeMethod(normalized string) bool {
	return normalized == "cambiar" || normalized == "cambiar metodo" || normalized == "cambiar pago"
}
