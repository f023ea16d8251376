package language

import (
	"sort"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a subtitle language offered to callers.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2
	display string
}

// Languages with a translation model in the default engine.
var known = []entry{
	{"en", "eng", "English"},
	{"ar", "ara", "Arabic"},
	{"zh", "zho", "Chinese"},
	{"fr", "fra", "French"},
	{"de", "deu", "German"},
	{"hi", "hin", "Hindi"},
	{"ga", "gle", "Irish"},
	{"it", "ita", "Italian"},
	{"ja", "jpn", "Japanese"},
	{"ko", "kor", "Korean"},
	{"pl", "pol", "Polish"},
	{"pt", "por", "Portuguese"},
	{"ru", "rus", "Russian"},
	{"es", "spa", "Spanish"},
	{"sv", "swe", "Swedish"},
	{"tr", "tur", "Turkish"},
	{"uk", "ukr", "Ukrainian"},
	{"nl", "nld", "Dutch"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(known))
	byCode3 = make(map[string]*entry, len(known))
	for i := range known {
		e := &known[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
	}
}

// DefaultCodes returns the codes of every built-in language, source language first.
func DefaultCodes() []string {
	codes := make([]string, 0, len(known))
	for _, e := range known {
		codes = append(codes, e.code2)
	}
	return codes
}

// Normalize converts a language code to its lower-case ISO 639-1 form.
// Three-letter codes are mapped when known; anything that is not a valid
// BCP 47 base language yields "".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e, ok := byCode2[code]; ok {
		return e.code2
	}
	if e, ok := byCode3[code]; ok {
		return e.code2
	}
	base, err := xlanguage.ParseBase(code)
	if err != nil {
		return ""
	}
	iso := base.String()
	if len(iso) != 2 {
		return ""
	}
	return iso
}

// Valid reports whether code normalizes to a usable language code.
func Valid(code string) bool {
	return Normalize(code) != ""
}

// DisplayName returns the English name for a language code.
func DisplayName(code string) string {
	norm := Normalize(code)
	if norm == "" {
		if strings.TrimSpace(code) == "" {
			return "Unknown"
		}
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if e, ok := byCode2[norm]; ok {
		return e.display
	}
	if name := display.English.Languages().Name(xlanguage.Make(norm)); name != "" {
		return name
	}
	return strings.ToUpper(norm)
}

// NormalizeList deduplicates and normalizes a list of language codes,
// dropping entries that are not languages. Order is preserved.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		norm := Normalize(code)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// Describe maps codes to Language values sorted by code.
func Describe(codes []string) []Language {
	out := make([]Language, 0, len(codes))
	for _, code := range NormalizeList(codes) {
		out = append(out, Language{Code: code, Name: DisplayName(code)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Targets returns every code in supported except source.
func Targets(source string, supported []string) []string {
	source = Normalize(source)
	var targets []string
	for _, code := range NormalizeList(supported) {
		if code == source {
			continue
		}
		targets = append(targets, code)
	}
	return targets
}
