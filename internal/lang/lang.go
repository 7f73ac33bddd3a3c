// Package lang normalizes free-form language codes into the finite set of
// tags the rest of lingobot works with.
package lang

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Tag is a normalized ISO 639-1 code drawn from the supported set.
type Tag string

// English is the pivot language; every prompt handed to a generator is
// expected to carry this tag.
const English Tag = "en"

// Default is returned for any input that cannot be mapped to a supported tag.
const Default = English

var supported = []Tag{
	"en", "es", "fr", "de", "it", "pt", "ru", "uk",
	"hi", "ta", "te", "bn", "mr", "gu", "kn", "ml", "pa", "ur",
	"zh", "ja", "ko", "ar",
}

var supportedSet = func() map[Tag]bool {
	m := make(map[Tag]bool, len(supported))
	for _, t := range supported {
		m[t] = true
	}
	return m
}()

// byName maps lower-cased English display names ("spanish") to tags so that
// UI selections can be passed straight through.
var byName = func() map[string]Tag {
	m := make(map[string]Tag, len(supported))
	for _, t := range supported {
		m[strings.ToLower(t.Name())] = t
	}
	// CLDR names that differ from the common English ones.
	m["bengali"] = "bn"
	m["panjabi"] = "pa"
	m["mandarin"] = "zh"
	return m
}()

// Info describes a supported language.
type Info struct {
	Tag  Tag    `json:"tag"`
	Name string `json:"name"`
}

// Normalize maps raw to a supported tag. It accepts BCP 47 tags ("pt-BR"),
// regional or model-specific codes ("zh-cn", "es_XX", "hi_IN"), upper-case
// detector output ("EN") and English language names ("Tamil"). Empty,
// unparsable and unsupported input folds to Default.
func Normalize(raw string) Tag {
	t, ok := lookup(raw)
	if !ok {
		return Default
	}
	return t
}

// IsSupported reports whether raw maps to a supported tag on its own merits,
// without falling back to Default.
func IsSupported(raw string) bool {
	_, ok := lookup(raw)
	return ok
}

func lookup(raw string) (Tag, bool) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" {
		return "", false
	}
	if t, ok := byName[code]; ok {
		return t, true
	}

	code = strings.ReplaceAll(code, "_", "-")
	parsed, err := language.Parse(code)
	if err != nil {
		// Model codes such as "es-xx" carry a private region that BCP 47
		// rejects; retry with the primary subtag alone.
		base, _, _ := strings.Cut(code, "-")
		if parsed, err = language.Parse(base); err != nil {
			return "", false
		}
	}

	// Only an explicit primary subtag counts; "und-IN" must not guess "hi".
	base, conf := parsed.Base()
	if conf != language.Exact {
		return "", false
	}
	t := Tag(base.String())
	if !supportedSet[t] {
		return "", false
	}
	return t, true
}

// Supported returns the supported languages in a stable order.
func Supported() []Info {
	out := make([]Info, 0, len(supported))
	for _, t := range supported {
		out = append(out, Info{Tag: t, Name: t.Name()})
	}
	return out
}

// Name returns the English display name of t, or the code itself when the
// display tables have no entry.
func (t Tag) Name() string {
	tag, err := language.Parse(string(t))
	if err != nil {
		return string(t)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return string(t)
}

func (t Tag) IsEnglish() bool { return t == English }

func (t Tag) String() string { return string(t) }
