package translation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Chinese is the default target.
var DefaultTarget = language.Chinese

// Languages accepted by name as well as by BCP 47 code.
var namedLanguages = []language.Tag{
	language.Chinese,
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.English,
	language.Japanese,
	language.Korean,
	language.French,
	language.German,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.Russian,
	language.Arabic,
	language.Vietnamese,
	language.Thai,
}

// LanguageName is the English name of tag, e.g. "Simplified Chinese".
func LanguageName(tag language.Tag) string {
	return display.English.Tags().Name(tag)
}

// ParseLanguage accepts a BCP 47 code ("zh", "en-US"), an English name ("Japanese")
// or a language's own name ("中文").
func ParseLanguage(value string) (language.Tag, error) {
	value = strings.TrimSpace(value)
	for _, tag := range namedLanguages {
		if strings.EqualFold(value, LanguageName(tag)) || value == display.Self.Name(tag) {
			return tag, nil
		}
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, fmt.Errorf("unknown language %q: %w", value, err)
	}
	return tag, nil
}
