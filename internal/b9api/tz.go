package b9api

import "strings"

// stateTimezone maps the two-letter state suffix of a location slug to its
// IANA timezone. States split across zones get the zone where the
// franchise actually operates.
var stateTimezone = map[string]string{
	// Pacific
	"ca": "America/Los_Angeles",
	"wa": "America/Los_Angeles",
	"or": "America/Los_Angeles",
	"nv": "America/Los_Angeles",

	// Mountain
	"az": "America/Phoenix", // no DST
	"ut": "America/Denver",
	"co": "America/Denver",
	"nm": "America/Denver",
	"id": "America/Denver",

	// Central
	"tx": "America/Chicago",
	"il": "America/Chicago",
	"wi": "America/Chicago",
	"mn": "America/Chicago",
	"mo": "America/Chicago",
	"ia": "America/Chicago",
	"ks": "America/Chicago",
	"ne": "America/Chicago",
	"ok": "America/Chicago",
	"la": "America/Chicago",
	"ar": "America/Chicago",
	"sd": "America/Chicago",
	"nd": "America/Chicago",
	"tn": "America/Chicago",
	"al": "America/Chicago",
	"ms": "America/Chicago",

	// Eastern
	"fl": "America/New_York",
	"ga": "America/New_York",
	"in": "America/Indiana/Indianapolis",
	"oh": "America/New_York",
	"mi": "America/New_York",
	"pa": "America/New_York",
	"ny": "America/New_York",
	"nj": "America/New_York",
	"ma": "America/New_York",
	"md": "America/New_York",
	"va": "America/New_York",
	"nc": "America/New_York",
	"sc": "America/New_York",
	"de": "America/New_York",
}

// DefaultTimezone is used when a slug carries no recognisable state suffix.
const DefaultTimezone = "America/Los_Angeles"

// TimezoneFor infers the IANA timezone for a location from its slug's
// trailing state code (e.g. "fishers-in" → America/Indiana/Indianapolis).
func TimezoneFor(slug string) string {
	if slug == "" {
		return DefaultTimezone
	}
	parts := strings.Split(strings.ToLower(slug), "-")
	state := parts[len(parts)-1]
	if tz, ok := stateTimezone[state]; ok {
		return tz
	}
	return DefaultTimezone
}
