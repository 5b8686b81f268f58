package constants

// Severity grades an anomaly reported on an assembled record.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
