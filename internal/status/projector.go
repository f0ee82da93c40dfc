// Package status derives the beneficiary-facing view of an application.
// It reads status fields and never writes them back.
package status

import (
	"time"

	"github.com/ppiankov/aidmatch/internal/model"
)

// Stage names, in timeline order
const (
	StageSubmitted  = "Application submitted"
	StageVerified   = "Verified"
	StageAllocated  = "Provider allocated"
	StageInProgress = "Aid in progress"
	StageCompleted  = "Completed"
)

type stateInfo struct {
	label      string
	progress   int
	nextAction string
}

var states = map[model.ApplicationStatus]stateInfo{
	model.ApplicationSubmitted: {
		label:      "Submitted",
		progress:   20,
		nextAction: "Wait for your documents to be reviewed",
	},
	model.ApplicationPending: {
		label:      "Pending verification",
		progress:   20,
		nextAction: "A reviewer is checking your documents; keep your phone reachable",
	},
	model.ApplicationVerified: {
		label:      "Verified",
		progress:   40,
		nextAction: "We are finding a provider that fits your need",
	},
	model.ApplicationMatched: {
		label:      "Matched with provider",
		progress:   60,
		nextAction: "Your provider will contact you to arrange delivery",
	},
	model.ApplicationInProgress: {
		label:      "Aid in progress",
		progress:   75,
		nextAction: "Confirm receipt once aid has been delivered",
	},
	model.ApplicationCompleted: {
		label:      "Completed",
		progress:   100,
		nextAction: "Rate your provider",
	},
}

const (
	unknownLabel      = "Unknown"
	unknownNextAction = "Contact support to check your application"
	ratedNextAction   = "No further action needed"
)

// ProjectStatus returns the projection for fields. The result depends only
// on fields, so repeated calls are identical. An unrecognized status
// projects to zero progress with an "Unknown" label.
func ProjectStatus(fields model.StatusFields) model.StatusProjection {
	info, ok := states[fields.Status]
	if !ok {
		info = stateInfo{label: unknownLabel, nextAction: unknownNextAction}
	}

	canRate := fields.Status == model.ApplicationCompleted && fields.Rating == nil
	if fields.Status == model.ApplicationCompleted && !canRate {
		info.nextAction = ratedNextAction
	}

	return model.StatusProjection{
		Status:          fields.Status,
		Label:           info.label,
		Progress:        Progress(fields.Status),
		Timeline:        timeline(fields),
		NextAction:      info.nextAction,
		CanRateProvider: canRate,
	}
}

// Progress returns the progress percentage for s, or 0 when unknown
func Progress(s model.ApplicationStatus) int {
	return states[s].progress
}

func timeline(f model.StatusFields) []model.TimelineStage {
	s := f.Status
	known := s.Ordinal() >= 0

	return []model.TimelineStage{
		{Name: StageSubmitted, Completed: known, Date: copyTime(f.SubmittedAt)},
		{Name: StageVerified, Completed: s.AtLeast(model.ApplicationVerified), Date: copyTime(f.VerifiedAt)},
		{Name: StageAllocated, Completed: s.AtLeast(model.ApplicationMatched) && f.AllocatedProviderID != "", Date: copyTime(f.MatchedAt)},
		{Name: StageInProgress, Completed: s.AtLeast(model.ApplicationInProgress)},
		{Name: StageCompleted, Completed: s == model.ApplicationCompleted && f.CompletionDate != nil, Date: copyTime(f.CompletionDate)},
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
