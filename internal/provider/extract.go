package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExtractValue normalizes a stat value that may arrive as a JSON number, a
// numeric string or null. ok is false when nothing numeric was found.
func ExtractValue(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
		return 0, false
	case map[string]interface{}:
		for _, key := range []string{"total", "value"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractValue(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// ExtractInt is ExtractValue truncated to an int, 0 when absent.
func ExtractInt(val interface{}) int {
	f, ok := ExtractValue(val)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// MinutesText renders a provider's minutes field as the free-form text the
// metrics calculator parses. Strings pass through ("36:12", "DNP", ""),
// whole numbers become bare integers and fractional numbers become "MM:SS".
func MinutesText(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	}

	f, ok := ExtractValue(val)
	if !ok || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	whole := math.Floor(f)
	secs := int(math.Round((f - whole) * 60))
	if secs == 60 {
		whole++
		secs = 0
	}
	if secs == 0 {
		return strconv.Itoa(int(whole))
	}
	return fmt.Sprintf("%d:%02d", int(whole), secs)
}
