// Package section splits generated readings into their six named parts and
// reduces them to what a given reader is entitled to see.
package section

import (
	"regexp"
	"strings"

	"tarot-oracle-be/pkg/utils"
)

// Key names one of the six narrative parts of a reading.
type Key string

const (
	Saludo   Key = "saludo"
	Pasado   Key = "pasado"
	Presente Key = "presente"
	Futuro   Key = "futuro"
	Sintesis Key = "sintesis"
	Consejo  Key = "consejo"
)

// Order is the canonical display order.
var Order = []Key{Saludo, Pasado, Presente, Futuro, Sintesis, Consejo}

func lookupKey(header string) (Key, bool) {
	folded := utils.Fold(strings.TrimSpace(header))
	for _, k := range Order {
		if folded == string(k) {
			return k, true
		}
	}
	return "", false
}

// Sections is the parsed form of a reading.
type Sections struct {
	Sectioned    bool
	FutureHidden bool
	Raw          string
	texts        map[Key]string
}

// Section is one visible part of a reading.
type Section struct {
	Key  Key
	Text string
}

// New builds a sectioned set from explicit values. Empty values are dropped.
func New(values map[Key]string) Sections {
	s := Sections{Sectioned: true, texts: make(map[Key]string, len(Order))}
	for _, k := range Order {
		if v := values[k]; v != "" {
			s.texts[k] = v
		}
	}
	return s
}

// Get returns the text of a section, or "" when absent.
func (s Sections) Get(k Key) string {
	return s.texts[k]
}

// Has reports whether a non-empty section is present.
func (s Sections) Has(k Key) bool {
	return s.texts[k] != ""
}

// Visible lists the non-empty sections in canonical order.
func (s Sections) Visible() []Section {
	out := make([]Section, 0, len(Order))
	for _, k := range Order {
		if v := s.texts[k]; v != "" {
			out = append(out, Section{Key: k, Text: v})
		}
	}
	return out
}

// VisibleText joins the visible sections with blank lines; unsectioned
// input yields the raw text.
func (s Sections) VisibleText() string {
	if !s.Sectioned {
		return s.Raw
	}
	parts := make([]string, 0, len(Order))
	for _, sec := range s.Visible() {
		parts = append(parts, sec.Text)
	}
	return strings.Join(parts, "\n\n")
}

var headerLine = regexp.MustCompile(`(?m)^##[ \t]+([^\r\n]+?)[ \t]*\r?$`)

// Parse scans raw for level-2 headers naming one of the six sections
// (case and accent insensitive). Headers outside the key set stay part of
// the surrounding span. With no recognised header the result is unsectioned.
func Parse(raw string) Sections {
	type match struct {
		key        Key
		start, end int
	}

	var matches []match
	for _, loc := range headerLine.FindAllStringSubmatchIndex(raw, -1) {
		k, ok := lookupKey(raw[loc[2]:loc[3]])
		if !ok {
			continue
		}
		matches = append(matches, match{key: k, start: loc[0], end: loc[1]})
	}

	if len(matches) == 0 {
		return Sections{Sectioned: false, Raw: raw}
	}

	s := Sections{Sectioned: true, Raw: raw, texts: make(map[Key]string, len(Order))}
	for i, m := range matches {
		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		s.texts[m.key] = strings.TrimSpace(raw[m.end:end])
	}
	return s
}

var firstSentence = regexp.MustCompile(`^[^.!?]*[.!?]`)

const teaserFallbackRunes = 100

// Teaser reduces a future section to its first sentence followed by an
// ellipsis marker, or to its first 100 characters when no sentence ends.
func Teaser(futuro string) string {
	if m := firstSentence.FindString(futuro); m != "" {
		return m + " ..."
	}
	return utils.TruncateRunes(futuro, teaserFallbackRunes) + "..."
}

// FilterForPaywall keeps saludo, pasado and presente, truncates futuro to a
// teaser and drops sintesis and consejo. Unsectioned input, futureHidden=false
// and already-filtered input pass through unchanged.
func FilterForPaywall(s Sections, futureHidden bool) Sections {
	if !futureHidden || !s.Sectioned || s.FutureHidden {
		return s
	}

	filtered := Sections{
		Sectioned:    true,
		FutureHidden: true,
		texts:        make(map[Key]string, 4),
	}
	for _, k := range []Key{Saludo, Pasado, Presente} {
		if v := s.texts[k]; v != "" {
			filtered.texts[k] = v
		}
	}
	if v := s.texts[Futuro]; v != "" {
		filtered.texts[Futuro] = Teaser(v)
	}
	return filtered
}
