package model

import "strings"

// Research statuses written to research_status.
const (
	StatusComplete       = "Complete"
	StatusSkippedNotFood = "Skipped - Not a restaurant"
	StatusSkippedTest    = "Skipped - Test account"
	StatusNoPlaceIDs     = "No Place IDs"
	StatusNoDataReturned = "No data returned"
	statusErrorPrefix    = "Error: "
	statusSkippedPrefix  = "Skipped"
)

// ErrorStatus formats a record-level failure status.
func ErrorStatus(msg string) string {
	return statusErrorPrefix + msg
}

// IsErrorStatus reports whether status is an Error: status.
func IsErrorStatus(status string) bool {
	return strings.HasPrefix(status, statusErrorPrefix)
}

// IsSkippedStatus reports whether status is one of the Skipped statuses.
func IsSkippedStatus(status string) bool {
	return strings.HasPrefix(status, statusSkippedPrefix)
}

// BaseConfidenceScore is the score every record starts from.
const BaseConfidenceScore = 50

// ConfidenceTier buckets a confidence score.
type ConfidenceTier string

const (
	ConfidenceHigh    ConfidenceTier = "High"
	ConfidenceMedium  ConfidenceTier = "Medium"
	ConfidenceLow     ConfidenceTier = "Low"
	ConfidenceVeryLow ConfidenceTier = "Very Low"
)

// ConfidenceTiers lists tiers from highest to lowest.
var ConfidenceTiers = []ConfidenceTier{ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceVeryLow}

// ConfidenceTierFor maps a score to its tier. Thresholds are checked top-down
// and every integer maps to exactly one tier.
func ConfidenceTierFor(score int) ConfidenceTier {
	switch {
	case score >= 90:
		return ConfidenceHigh
	case score >= 70:
		return ConfidenceMedium
	case score >= 50:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// SalesTier is the re-tier classification.
type SalesTier string

const (
	Tier1 SalesTier = "Tier 1"
	Tier2 SalesTier = "Tier 2"
	Tier3 SalesTier = "Tier 3"
	// Tier4 is part of the output domain but no current rule assigns it.
	Tier4 SalesTier = "Tier 4"
	// Tier5 is the "not a fit" default.
	Tier5 SalesTier = "Tier 5"
)

// SalesTiers lists every re-tier label in order.
var SalesTiers = []SalesTier{Tier1, Tier2, Tier3, Tier4, Tier5}
