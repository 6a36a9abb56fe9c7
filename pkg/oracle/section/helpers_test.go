package section

import "strings"

var titles = map[Key]string{
	Saludo:   "Saludo",
	Pasado:   "Pasado",
	Presente: "Presente",
	Futuro:   "Futuro",
	Sintesis: "Síntesis",
	Consejo:  "Consejo",
}

func render(s Sections) string {
	if !s.Sectioned {
		return s.Raw
	}
	parts := make([]string, 0, len(Order))
	for _, sec := range s.Visible() {
		parts = append(parts, "## "+titles[sec.Key]+"\n"+sec.Text)
	}
	return strings.Join(parts, "\n\n")
}

func asMap(s Sections) map[string]string {
	out := make(map[string]string, len(Order))
	for _, sec := range s.Visible() {
		out[string(sec.Key)] = sec.Text
	}
	return out
}

func complete(s Sections) bool {
	return s.Sectioned && len(s.Visible()) == len(Order)
}
