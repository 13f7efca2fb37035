package utils

import "strings"

// SourceShortforms maps accepted shorthand spellings of reference-data
// source names to the canonical source. Each source gets its initials and
// its first significant word (skipping a leading "a"/"the") in mixed,
// lower and upper case; shortforms shared by more than one source are
// discarded to keep the mapping unambiguous. Full names always map to
// themselves.
func SourceShortforms(sources []string) map[string]string {
	shortforms := make(map[string]map[string]struct{})
	for _, source := range sources {
		words := strings.Fields(source)
		if len(words) == 0 {
			continue
		}
		forms := make(map[string]struct{})

		var initials strings.Builder
		for _, w := range words {
			initials.WriteByte(w[0])
		}
		for _, f := range []string{initials.String(), strings.ToLower(initials.String()), strings.ToUpper(initials.String())} {
			forms[f] = struct{}{}
		}

		first := words[0]
		if len(words) > 1 && (strings.EqualFold(first, "a") || strings.EqualFold(first, "the")) {
			first = words[1]
		}
		for _, f := range []string{first, strings.ToLower(first), strings.ToUpper(first)} {
			forms[f] = struct{}{}
		}

		shortforms[source] = forms
	}

	claims := make(map[string][]string)
	for source, forms := range shortforms {
		for f := range forms {
			claims[f] = append(claims[f], source)
		}
	}

	mapping := make(map[string]string)
	for f, srcs := range claims {
		if len(srcs) == 1 {
			mapping[f] = srcs[0]
		}
	}
	for _, source := range sources {
		mapping[source] = source
	}
	return mapping
}
