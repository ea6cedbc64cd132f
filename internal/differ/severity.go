package differ

// SeverityLevel 0=safe, 1=mod, 2=crit
type SeverityLevel int

const (
	SeveritySafe SeverityLevel = iota
	SeverityModerate
	SeverityCritical
)

// GetSeverity of overriding attribute key. FINGERPRINT feeds attestation
// and integrity checks; TYPE and TAGS are cosmetic.
func GetSeverity(key string) SeverityLevel {
	switch key {
	case "FINGERPRINT":
		return SeverityCritical
	case "TYPE", "TAGS":
		return SeveritySafe
	default:
		return SeverityModerate
	}
}

// SeverityString to lowercase
func SeverityString(s SeverityLevel) string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityModerate:
		return "moderate"
	case SeveritySafe:
		return "info"
	default:
		return "unknown"
	}
}
