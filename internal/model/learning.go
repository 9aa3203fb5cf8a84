package model

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// LearningRecord is the latest human correction for a vendor signature.
type LearningRecord struct {
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Signature       string         `json:"signature"`
	Issuer          string         `json:"issuer"`
	Direction       Direction      `json:"direction"`
	Mapping         AccountMapping `json:"mapping"`
	CorrectionCount int            `json:"correction_count"`
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeName folds width, case and spacing so cosmetic variants of a
// name compare equal: "ＡＣＭＥ Co" and "acme co" normalize the same.
func NormalizeName(name string) string {
	name = norm.NFKC.String(name)
	name = strings.ToLower(name)
	return spaceRe.ReplaceAllString(name, "")
}

// Signature derives the learning key for an issuer in a direction.
// An empty issuer yields an empty signature.
func Signature(issuer string, direction Direction) string {
	n := NormalizeName(issuer)
	if n == "" {
		return ""
	}
	if !direction.IsValid() {
		direction = DirectionPurchase
	}
	return string(direction) + ":" + n
}
