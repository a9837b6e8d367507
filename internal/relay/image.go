package relay

import "regexp"

var dataURIPrefix = regexp.MustCompile(`(?i)^data:image/(?:png|jpeg|jpg|webp);base64,`)

// StripDataURI returns the base64 payload of a data URI. Raw base64, empty
// strings and anything else that does not match are returned unchanged.
func StripDataURI(s string) string {
	return dataURIPrefix.ReplaceAllString(s, "")
}
