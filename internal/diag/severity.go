package diag

// Severity orders diagnostics; Bag.HasErrors and sorting rely on
// SevInfo < SevWarning < SevError.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError // every scanner defect and unrecoverable repair
)

var severityNames = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

// Label is the lowercase name used in text output.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// String is the uppercase name used in JSON output.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
