// Package geo resolves free-text places to coordinates and road distances
// through a two-tier geocoding chain and an external routing service.
package geo

import "strings"

// Administrative suffixes stripped from city text. Order matters: longer
// suffixes first so "tirupur district" does not become "tirupur distr".
var citySuffixes = []string{
	" municipality",
	" corporation",
	" district",
	" taluka",
	" taluk",
	" rural",
	" urban",
	" city",
}

// Alias table collapsing known spelling variants to one canonical token.
var cityAliases = map[string]string{
	"kovai":      "coimbatore",
	"covai":      "coimbatore",
	"madras":     "chennai",
	"bengaluru":  "bangalore",
	"bengalooru": "bangalore",
	"tiruppur":   "tirupur",
	"trichy":     "tiruchirappalli",
	"calicut":    "kozhikode",
	"cochin":     "kochi",
	"mysuru":     "mysore",
	"pondy":      "puducherry",
	"pondicherry": "puducherry",
}

// NormalizeCity canonicalizes free-text city input. It returns the lowercase
// comparison token and false when the input is empty or whitespace. The
// function is pure.
func NormalizeCity(cityText string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(cityText))
	if s == "" {
		return "", false
	}
	for _, suffix := range citySuffixes {
		if trimmed := strings.TrimSuffix(s, suffix); trimmed != s {
			s = strings.TrimSpace(trimmed)
			break
		}
	}
	if canonical, ok := cityAliases[s]; ok {
		s = canonical
	}
	return s, true
}

// DisplayCity title-cases a normalized token for presentation. Comparisons
// elsewhere always use the lowercase token from NormalizeCity.
func DisplayCity(token string) string {
	words := strings.Fields(token)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
