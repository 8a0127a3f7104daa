package location

import (
	"context"
	"regexp"
	"strings"

	"github.com/ann82/dv-assistant-sub003/internal/cache"
)

// Place is a resolved location.
type Place struct {
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country"`
	Domestic bool   `json:"domestic"`
}

// Geocoder resolves a free-text utterance to a place. A nil place with a nil
// error means no location was found.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (*Place, error)
}

var zipPattern = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)

// GazetteerGeocoder resolves places against a small built-in US gazetteer
// plus a list of foreign countries and cities.
type GazetteerGeocoder struct{}

// NewGazetteerGeocoder returns the built-in geocoder.
func NewGazetteerGeocoder() *GazetteerGeocoder {
	return &GazetteerGeocoder{}
}

// Geocode prefers an explicit "in/near/around/at" phrase, then a bare city or
// state name, then a ZIP code.
func (g *GazetteerGeocoder) Geocode(ctx context.Context, text string) (*Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if phrase := ExtractPrefixed(text); phrase != "" {
		return resolvePhrase(phrase), nil
	}

	lower := " " + strings.ToLower(normalizeSpaces(text)) + " "
	for _, c := range usCities {
		if containsWord(lower, c.name) {
			return &Place{Name: titleCase(c.name), City: titleCase(c.name), State: c.state, Country: "US", Domestic: true}, nil
		}
	}
	for _, name := range foreignCities {
		if containsWord(lower, name) {
			return &Place{Name: titleCase(name), City: titleCase(name), Domestic: false}, nil
		}
	}
	for _, name := range stateNames {
		if containsWord(lower, name) {
			return &Place{Name: titleCase(name), State: usStates[name], Country: "US", Domestic: true}, nil
		}
	}
	if m := zipPattern.FindStringSubmatch(text); m != nil {
		return &Place{Name: m[1], Country: "US", Domestic: true}, nil
	}
	return nil, nil
}

// resolvePhrase classifies an extracted phrase. Unknown phrases are assumed domestic.
func resolvePhrase(phrase string) *Place {
	place := &Place{Name: phrase, Country: "US", Domestic: true}

	lower := strings.ToLower(phrase)
	parts := strings.Split(lower, ",")
	head := strings.TrimSpace(parts[0])

	for _, country := range foreignCountries {
		if lower == country || strings.HasSuffix(lower, " "+country) || strings.HasSuffix(lower, ","+country) || strings.HasSuffix(lower, ", "+country) {
			place.Country = titleCase(country)
			place.Domestic = false
			return place
		}
	}
	for _, name := range foreignCities {
		if head == name {
			place.City = titleCase(name)
			place.Country = ""
			place.Domestic = false
			return place
		}
	}

	if len(parts) > 1 {
		tail := strings.TrimSpace(parts[len(parts)-1])
		if abbr, ok := stateAbbr(tail); ok {
			place.State = abbr
			place.City = titleCase(head)
			return place
		}
	}
	if abbr, ok := usStates[head]; ok {
		place.State = abbr
		return place
	}
	for _, c := range usCities {
		if head == c.name {
			place.City = titleCase(c.name)
			place.State = c.state
			return place
		}
	}
	return place
}

func stateAbbr(s string) (string, bool) {
	if abbr, ok := usStates[s]; ok {
		return abbr, true
	}
	upper := strings.ToUpper(s)
	for _, abbr := range usStates {
		if abbr == upper {
			return abbr, true
		}
	}
	return "", false
}

// CachedGeocoder memoises another geocoder, negative results included.
type CachedGeocoder struct {
	next  Geocoder
	cache *cache.Cache[*Place]
}

// NewCachedGeocoder wraps next with c.
func NewCachedGeocoder(next Geocoder, c *cache.Cache[*Place]) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: c}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, text string) (*Place, error) {
	key := cache.NormalizeKey(text)
	if place, ok := g.cache.Get(key); ok {
		return clonePlace(place), nil
	}

	place, err := g.next.Geocode(ctx, text)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, clonePlace(place))
	return place, nil
}

func clonePlace(p *Place) *Place {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func containsWord(paddedLower, word string) bool {
	idx := strings.Index(paddedLower, word)
	for idx >= 0 {
		before := paddedLower[idx-1]
		after := byte(' ')
		if end := idx + len(word); end < len(paddedLower) {
			after = paddedLower[end]
		}
		if !isLetter(before) && !isLetter(after) {
			return true
		}
		next := strings.Index(paddedLower[idx+1:], word)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
