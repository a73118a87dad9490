package feed

import "fmt"

// ParseTimeframe converts M1|M5|M15|M30|H1|H4|D1|W1|MN1 to seconds.
func ParseTimeframe(tf string) (int64, error) {
	switch tf {
	case "M1":
		return 60, nil
	case "M5":
		return 300, nil
	case "M15":
		return 900, nil
	case "M30":
		return 1800, nil
	case "H1":
		return 3600, nil
	case "H4":
		return 14400, nil
	case "D1":
		return 86400, nil
	case "W1":
		return 604800, nil
	case "MN1":
		return 2592000, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q", tf)
}

// FormatTimeframe is the inverse of ParseTimeframe for any whole number of
// minutes, hours or days.
func FormatTimeframe(sec int64) (string, error) {
	if sec <= 0 {
		return "", fmt.Errorf("invalid timeframe seconds: %d", sec)
	}
	if sec < 3600 && sec%60 == 0 {
		return fmt.Sprintf("M%d", sec/60), nil
	}
	if sec < 86400 && sec%3600 == 0 {
		return fmt.Sprintf("H%d", sec/3600), nil
	}
	if sec%86400 == 0 {
		switch days := sec / 86400; days {
		case 7:
			return "W1", nil
		case 30:
			return "MN1", nil
		default:
			return fmt.Sprintf("D%d", days), nil
		}
	}
	return "", fmt.Errorf("cannot map timeframe: %d seconds", sec)
}
