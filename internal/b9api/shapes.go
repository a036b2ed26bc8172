package b9api

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jwclark94/backninescrape/internal/domain"
)

// errNoLocations is the single error surfaced when no shape matcher can
// extract a location list from any response variant.
var errNoLocations = errors.New("b9api: could not extract locations from response")

// shapeMatcher attempts to extract a location list from one decoded
// response shape. A nil or empty result means the shape did not match.
type shapeMatcher func(v any) []domain.Location

// shapeMatchers is the ordered chain of response shapes the site has been
// seen to serve: a plain list, well-known wrapper keys (possibly nested),
// a map keyed by slug, and markup embedded in an html/script payload.
var shapeMatchers []shapeMatcher

// Assigned in init to break the initialization cycle between shapeMatchers,
// matchWrapperKeys, and extractLocations.
func init() {
	shapeMatchers = []shapeMatcher{
		matchPlainList,
		matchWrapperKeys,
		matchSlugMap,
		matchEmbeddedMarkup,
	}
}

// extractLocations runs the matcher chain and returns the first non-empty
// result.
func extractLocations(v any) []domain.Location {
	for _, match := range shapeMatchers {
		if locs := match(v); len(locs) > 0 {
			return locs
		}
	}
	return nil
}

// asLocation converts one decoded object into a Location. Returns the zero
// Location when there is no usable slug.
func asLocation(m map[string]any) domain.Location {
	slug, _ := m["slug"].(string)
	if slug == "" {
		slug, _ = m["location_slug"].(string)
	}
	if slug == "" {
		return domain.Location{}
	}

	city, _ := m["title"].(string)
	if city == "" {
		city, _ = m["name"].(string)
	}
	if city == "" {
		city = slug
	}
	return domain.Location{City: city, Slug: slug}
}

func collectLocations(items []any) []domain.Location {
	var locs []domain.Location
	seen := make(map[string]bool)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		loc := asLocation(m)
		if loc.Slug == "" || seen[loc.Slug] {
			continue
		}
		seen[loc.Slug] = true
		locs = append(locs, loc)
	}
	return locs
}

// matchPlainList handles a bare JSON array of location objects.
func matchPlainList(v any) []domain.Location {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	return collectLocations(items)
}

// matchWrapperKeys handles {"locations": [...]}, {"data": {...}}, and the
// other wrapper keys the site has used, recursing one level into nested
// objects.
func matchWrapperKeys(v any) []domain.Location {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	for _, key := range []string{"locations", "data", "results", "items"} {
		inner, ok := m[key]
		if !ok {
			continue
		}
		if items, ok := inner.([]any); ok {
			if locs := collectLocations(items); len(locs) > 0 {
				return locs
			}
		}
		if nested, ok := inner.(map[string]any); ok {
			if locs := extractLocations(nested); len(locs) > 0 {
				return locs
			}
		}
	}
	return nil
}

// matchSlugMap handles an object whose values are all location objects,
// keyed by some identifier, where at least one value carries a slug.
func matchSlugMap(v any) []domain.Location {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}

	var items []any
	sluggy := false
	for _, val := range m {
		obj, ok := val.(map[string]any)
		if !ok {
			return nil
		}
		if _, has := obj["slug"]; has {
			sluggy = true
		} else if _, has := obj["location_slug"]; has {
			sluggy = true
		}
		items = append(items, val)
	}
	if !sluggy {
		return nil
	}
	return collectLocations(items)
}

var (
	optionTagRe = regexp.MustCompile(`(?i)<option[^>]*value=["']([^"']+)["'][^>]*>\s*([^<]+?)\s*</option>`)
	slugParamRe = regexp.MustCompile(`(?i)[?&]slug=([a-z0-9-]+)`)
)

// matchEmbeddedMarkup handles {"html": "...", "script": "..."} payloads,
// scraping <option> tags first and falling back to slug query parameters.
func matchEmbeddedMarkup(v any) []domain.Location {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	html, ok := m["html"].(string)
	if !ok {
		return nil
	}
	script, _ := m["script"].(string)
	blob := html + "\n" + script

	var locs []domain.Location
	seen := make(map[string]bool)

	for _, match := range optionTagRe.FindAllStringSubmatch(blob, -1) {
		slug := strings.TrimSpace(match[1])
		title := strings.TrimSpace(match[2])
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		locs = append(locs, domain.Location{City: title, Slug: slug})
	}
	if len(locs) > 0 {
		return locs
	}

	for _, match := range slugParamRe.FindAllStringSubmatch(blob, -1) {
		slug := match[1]
		if seen[slug] {
			continue
		}
		seen[slug] = true
		locs = append(locs, domain.Location{City: slug, Slug: slug})
	}
	return locs
}
