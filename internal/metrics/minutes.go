package metrics

import (
	"strconv"
	"strings"
)

// ParseMinutes converts the free-form minutes field into decimal minutes.
//
// Recognized forms, in priority order:
//
//	""            -> 0, DNP
//	"DNP - Rest"  -> 0, DNP (case-insensitive marker anywhere in the text)
//	"32:30"       -> 32.5
//	"32"          -> 32.0
//
// A zero-valued "0" or "0:00" is also a DNP. Anything else parses to 0
// minutes without the DNP flag. Downstream guards treat that row exactly like
// a DNP because minutes are 0, but the flag itself stays false.
func ParseMinutes(text string) (minutes float64, dnp bool) {
	s := strings.TrimSpace(text)
	if s == "" || strings.Contains(strings.ToUpper(s), "DNP") {
		return 0, true
	}

	if i := strings.IndexByte(s, ':'); i >= 0 {
		mm, errM := strconv.Atoi(strings.TrimSpace(s[:i]))
		ss, errS := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if errM != nil || errS != nil || mm < 0 || ss < 0 {
			return 0, false
		}
		minutes = float64(mm) + float64(ss)/60.0
		return minutes, minutes == 0
	}

	if isDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return float64(n), n == 0
	}

	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
