package relay

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pinauth/pin-relay/internal/model"
)

// ResponseShape tags the historical reply formats of the remote service.
type ResponseShape string

const (
	// ShapeResult nests HTML fragments under "result".
	ShapeResult ResponseShape = "result"
	// ShapeEnvelope wraps flat fields in {"success": ..., "data": {...}}.
	ShapeEnvelope ResponseShape = "envelope"
	// ShapeReport carries a single free-text "analysisReport".
	ShapeReport ResponseShape = "report"
	// ShapeFlat has characters/analysis/identification/pricing at the top level.
	ShapeFlat ResponseShape = "flat"
	// ShapeUnknown is anything else, including arrays, scalars and {}.
	ShapeUnknown ResponseShape = "unknown"
)

// AuthenticThreshold is the 0-100 rating at or above which a pin is
// considered authentic when the remote does not say so explicitly.
const AuthenticThreshold = 60

var flatKeys = []string{"characters", "analysis", "identification", "pricing", "authentic", "authenticityRating"}

var finalRatingRegex = regexp.MustCompile(`(?i)final\s+rating:?\s*(?:</?[a-z][^>]*>\s*)*(\d+(?:\.\d+)?)\s*(?:</?[a-z][^>]*>\s*)*/\s*5`)

// DetectShape classifies a decoded JSON body.
func DetectShape(body any) ResponseShape {
	m, ok := body.(map[string]any)
	if !ok {
		return ShapeUnknown
	}
	if _, ok := m["result"].(map[string]any); ok {
		return ShapeResult
	}
	if _, ok := m["data"].(map[string]any); ok {
		return ShapeEnvelope
	}
	if _, ok := m["analysisReport"].(string); ok {
		return ShapeReport
	}
	for _, k := range flatKeys {
		if _, ok := m[k]; ok {
			return ShapeFlat
		}
	}
	return ShapeUnknown
}

// sources lists the objects a shape's fields are read from, in precedence order.
func (s ResponseShape) sources(body any) []map[string]any {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	switch s {
	case ShapeResult:
		return []map[string]any{m["result"].(map[string]any), m}
	case ShapeEnvelope:
		return []map[string]any{m["data"].(map[string]any), m}
	default:
		return []map[string]any{m}
	}
}

// Normalize turns any decoded reply into an AnalysisResult. It never fails:
// missing or null fields fall back to defaults, sessionID and now included.
func Normalize(body any, sessionID string, now time.Time) model.AnalysisResult {
	srcs := DetectShape(body).sources(body)

	rating := resolveRating(srcs)

	authentic, ok := lookupBool(srcs, "authentic")
	if !ok {
		authentic = rating >= AuthenticThreshold
	}

	result := model.AnalysisResult{
		Authentic:          authentic,
		AuthenticityRating: rating,
		Analysis:           lookupString(srcs, "analysis", "analysisReport"),
		Identification:     lookupString(srcs, "identification"),
		Pricing:            lookupString(srcs, "pricing"),
		Characters:         lookupString(srcs, "characters"),
		SessionID:          lookupString(srcs, "sessionId"),
		Timestamp:          resolveTimestamp(srcs),
	}

	if result.SessionID == "" {
		result.SessionID = sessionID
	}
	if result.Timestamp == "" {
		result.Timestamp = now.UTC().Format(time.RFC3339)
	}

	return result
}

// ParseFinalRating extracts "Final Rating: n/5" from text and scales it to 0-100.
func ParseFinalRating(text string) (int, bool) {
	match := finalRatingRegex.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return clampRating(n * 20), true
}

func resolveRating(srcs []map[string]any) int {
	for _, src := range srcs {
		if n, ok := toNumber(src["authenticityRating"]); ok {
			return clampRating(n)
		}
	}
	for _, key := range []string{"analysisReport", "analysis"} {
		for _, src := range srcs {
			text, ok := src[key].(string)
			if !ok {
				continue
			}
			if rating, ok := ParseFinalRating(text); ok {
				return rating
			}
		}
	}
	return 0
}

func resolveTimestamp(srcs []map[string]any) string {
	for _, src := range srcs {
		switch v := src["timestamp"].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if ts, ok := millisTimestamp(v); ok {
				return ts
			}
		case json.Number:
			if ms, err := v.Float64(); err == nil {
				if ts, ok := millisTimestamp(ms); ok {
					return ts
				}
			}
		}
	}
	return ""
}

// maxTimestampMillis keeps formatted timestamps within four-digit years.
const maxTimestampMillis = 253402300799999

func millisTimestamp(ms float64) (string, bool) {
	if math.IsNaN(ms) || ms < 0 || ms > maxTimestampMillis {
		return "", false
	}
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339), true
}

func lookupBool(srcs []map[string]any, key string) (bool, bool) {
	for _, src := range srcs {
		if b, ok := src[key].(bool); ok {
			return b, true
		}
	}
	return false, false
}

func lookupString(srcs []map[string]any, keys ...string) string {
	for _, key := range keys {
		for _, src := range srcs {
			v, present := src[key]
			if !present || v == nil {
				continue
			}
			return stringify(v)
		}
	}
	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		n, err := val.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return n, err == nil
	}
	return 0, false
}

func clampRating(n float64) int {
	switch {
	case math.IsNaN(n), n <= 0:
		return 0
	case n >= 100:
		return 100
	}
	return int(math.Round(n))
}
