package model

import "time"

// ApplicationStatus is a beneficiary application's position in its
// forward-only lifecycle
type ApplicationStatus string

const (
	ApplicationSubmitted  ApplicationStatus = "submitted"
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationVerified   ApplicationStatus = "verified"
	ApplicationMatched    ApplicationStatus = "matched"
	ApplicationInProgress ApplicationStatus = "in-progress"
	ApplicationCompleted  ApplicationStatus = "completed"
)

// ApplicationSequence lists the statuses in lifecycle order
var ApplicationSequence = []ApplicationStatus{
	ApplicationSubmitted,
	ApplicationPending,
	ApplicationVerified,
	ApplicationMatched,
	ApplicationInProgress,
	ApplicationCompleted,
}

// Ordinal returns the position in ApplicationSequence, or -1 when unknown
func (s ApplicationStatus) Ordinal() int {
	for i, v := range ApplicationSequence {
		if v == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s has reached other in the lifecycle
func (s ApplicationStatus) AtLeast(other ApplicationStatus) bool {
	o := s.Ordinal()
	return o >= 0 && o >= other.Ordinal()
}

// StatusFields are the persisted beneficiary fields the projection reads
type StatusFields struct {
	BeneficiaryID       string            `json:"beneficiary_id,omitempty" yaml:"beneficiary_id,omitempty"`
	Status              ApplicationStatus `json:"status" yaml:"status"`
	SubmittedAt         *time.Time        `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	VerifiedAt          *time.Time        `json:"verified_at,omitempty" yaml:"verified_at,omitempty"`
	MatchedAt           *time.Time        `json:"matched_at,omitempty" yaml:"matched_at,omitempty"`
	AllocatedProviderID string            `json:"allocated_provider_id,omitempty" yaml:"allocated_provider_id,omitempty"`
	CompletionDate      *time.Time        `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`
	Rating              *int              `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// TimelineStage is one of the five stages shown to a beneficiary
type TimelineStage struct {
	Name      string     `json:"name"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date,omitempty"`
}

// StatusProjection is the derived, read-only view of an application
type StatusProjection struct {
	Status          ApplicationStatus `json:"status"`
	Label           string            `json:"label"`
	Progress        int               `json:"progress"`
	Timeline        []TimelineStage   `json:"timeline"`
	NextAction      string            `json:"next_action"`
	CanRateProvider bool              `json:"can_rate_provider"`
}
