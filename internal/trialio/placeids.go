package trialio

import (
	"regexp"
	"strings"
)

var (
	// placeIDToken matches google_place_id:<id> inside free text such as
	// "(google_place_id:abc, google_place_id:def)".
	placeIDToken = regexp.MustCompile(`google_place_id:\s*([^,;\)\s]+)`)
	// bareID accepts plain ids in a delimited list.
	bareID = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

// ParsePlaceIDs extracts place ids from text. Tagged google_place_id: tokens
// win; otherwise the text is read as a list of bare ids separated by
// semicolons, commas or pipes. Duplicates are dropped and first-appearance
// order is kept.
func ParsePlaceIDs(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var ids []string
	seen := make(map[string]struct{})
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if matches := placeIDToken.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		for _, m := range matches {
			add(m[1])
		}
		return ids
	}

	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ';' || r == ',' || r == '|'
	}) {
		tok = strings.TrimSpace(tok)
		if bareID.MatchString(tok) {
			add(tok)
		}
	}
	return ids
}
