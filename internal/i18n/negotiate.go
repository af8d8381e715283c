package i18n

import (
	"golang.org/x/text/language"

	"subtrack/internal/core"
)

var (
	supportedTags = func() []language.Tag {
		tags := make([]language.Tag, 0, len(core.Locales))
		for _, loc := range core.Locales {
			tags = append(tags, language.Make(string(loc)))
		}
		return tags
	}()
	matcher = language.NewMatcher(supportedTags)
)

// Negotiate picks a supported locale. An explicit choice wins, then the
// Accept-Language header, then fallback.
func Negotiate(explicit, acceptLanguage string, fallback core.Locale) core.Locale {
	if loc := core.Locale(explicit); loc.IsValid() {
		return loc
	}
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			if loc, ok := match(tag); ok {
				return loc
			}
		}
	}
	if acceptLanguage != "" {
		tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err == nil && len(tags) > 0 {
			if loc, ok := match(tags...); ok {
				return loc
			}
		}
	}
	if fallback.IsValid() {
		return fallback
	}
	return core.DefaultLocale
}

func match(tags ...language.Tag) (core.Locale, bool) {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return core.Locales[idx], true
}
