// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ValidationStatus describes how much evidence backs a record.
type ValidationStatus string

const (
	ValidationValidated ValidationStatus = "validated"
	ValidationPublished ValidationStatus = "published"
	ValidationPredicted ValidationStatus = "predicted"
)

// CandidateRecord is one unit of data proposed by a source for persistence.
// Sources hand records over by value; nothing mutates a record once produced.
type CandidateRecord struct {
	// Payload is the unique content (a guide sequence). Its hash is the natural key.
	Payload string `json:"payload" yaml:"payload"`

	// Category is the descriptive label (a gene symbol).
	Category string `json:"category" yaml:"category"`

	// Efficiency, GCContent and OffTargetScore are the numeric scores.
	Efficiency     float64 `json:"efficiency" yaml:"efficiency"`
	GCContent      float64 `json:"gc_content" yaml:"gc_content"`
	OffTargetScore float64 `json:"off_target_score" yaml:"off_target_score"`

	Validation ValidationStatus `json:"validation_status" yaml:"validation_status"`

	// SourceTag identifies the producing source (e.g. "PUBMED_NEW").
	SourceTag string `json:"source_tag" yaml:"source_tag"`

	// Title is optional; empty is stored as NULL.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// ReferenceDate is optional; the zero time is stored as NULL.
	ReferenceDate time.Time `json:"reference_date,omitempty" yaml:"reference_date,omitempty"`

	// ContextLabel is optional (a cell line); empty is stored as NULL.
	ContextLabel string `json:"context_label,omitempty" yaml:"context_label,omitempty"`
}
