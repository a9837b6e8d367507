package relay

import (
	"regexp"
	"time"
)

var sessionIDRegex = regexp.MustCompile(`^\d{12}$`)

// NewSessionID formats now as YYMMDDHHMMSS in its own location.
// Two uploads within the same second get the same ID.
func NewSessionID(now time.Time) string {
	return now.Format("060102150405")
}

func GenerateSessionID() string {
	return NewSessionID(time.Now())
}

func ValidSessionID(s string) bool {
	return sessionIDRegex.MatchString(s)
}
