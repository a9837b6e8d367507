package service

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pinauth/pin-relay/internal/model"
	"github.com/pinauth/pin-relay/internal/relay"
)

// CanonicalPinID maps a bare session ID, as older clients send it, to
// pin_<sessionId>. Anything else is returned trimmed.
func CanonicalPinID(pinID string) string {
	pinID = strings.TrimSpace(pinID)
	if relay.ValidSessionID(pinID) {
		log.Info().Str("pinId", pinID).Msg("legacy bare session pin id canonicalized")
		return model.PinIDForSession(pinID)
	}
	return pinID
}
