package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportStatus tracks how far a school has progressed on a report.
type ReportStatus string

const (
	ReportStatusNew                ReportStatus = "new"
	ReportStatusUnderInvestigation ReportStatus = "under_investigation"
	ReportStatusResolved           ReportStatus = "resolved"
)

// ReportStatuses lists every valid status. Any status may move to any other.
var ReportStatuses = []ReportStatus{ReportStatusNew, ReportStatusUnderInvestigation, ReportStatusResolved}

// Valid reports whether s is one of the known statuses.
func (s ReportStatus) Valid() bool {
	for _, known := range ReportStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// BullyingType classifies a report.
type BullyingType string

const (
	BullyingVerbal          BullyingType = "Verbal"
	BullyingPhysical        BullyingType = "Physical"
	BullyingCyber           BullyingType = "Cyber"
	BullyingSocialExclusion BullyingType = "Social Exclusion"
	BullyingOther           BullyingType = "Other"
)

// BullyingTypes lists the accepted classifications.
var BullyingTypes = []BullyingType{BullyingVerbal, BullyingPhysical, BullyingCyber, BullyingSocialExclusion, BullyingOther}

// Valid reports whether t is an accepted classification.
func (t BullyingType) Valid() bool {
	for _, known := range BullyingTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Report is an anonymous bullying report.
type Report struct {
	ID              string       `db:"id" json:"id"`
	SchoolID        string       `db:"school_id" json:"school_id"`
	BullyingType    BullyingType `db:"bullying_type" json:"bullying_type"`
	Narrative       string       `db:"narrative" json:"narrative"`
	InvolvedParties *string      `db:"involved_parties" json:"involved_parties,omitempty"`
	YearLevel       *string      `db:"year_level" json:"year_level,omitempty"`
	IncidentDate    *string      `db:"incident_date" json:"incident_date,omitempty"`
	IncidentTime    *string      `db:"incident_time" json:"incident_time,omitempty"`
	Location        *string      `db:"location" json:"location,omitempty"`
	Status          ReportStatus `db:"status" json:"status"`
	ReferenceCode   string       `db:"reference_code" json:"reference_code"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// ReferenceLookup maps a reference code back to its report. Written once with the report.
type ReferenceLookup struct {
	Code      string    `db:"code" json:"code"`
	ReportID  string    `db:"report_id" json:"report_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReferenceCode derives the human-facing code for a report id created at createdAt.
func ReferenceCode(reportID string, createdAt time.Time) string {
	prefix := reportID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("FR%d-%s", createdAt.UTC().Year(), strings.ToUpper(prefix))
}

// SortOrder orders report listings by creation time.
type SortOrder string

const (
	SortNewestFirst SortOrder = "newest_first"
	SortOldestFirst SortOrder = "oldest_first"
)

// ParseSortOrder accepts the canonical names plus asc/desc. Empty means newest first.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(SortNewestFirst), "desc":
		return SortNewestFirst, true
	case string(SortOldestFirst), "asc":
		return SortOldestFirst, true
	default:
		return "", false
	}
}

// StatusFilterAll disables status filtering.
const StatusFilterAll = "all"

// ReportFilter scopes an admin listing.
type ReportFilter struct {
	SchoolID string
	Status   *ReportStatus
	Sort     SortOrder
}
