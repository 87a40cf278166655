package readmodel

type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// BandConfidence buckets an answer confidence for display.
func BandConfidence(confidence float64) ConfidenceBand {
	switch {
	case confidence > 0.8:
		return ConfidenceHigh
	case confidence > 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
