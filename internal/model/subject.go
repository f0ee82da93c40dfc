package model

import "time"

// SubjectKind classifies the piece of evidence being verified
type SubjectKind string

const (
	SubjectIdentityDocument     SubjectKind = "identity_document"     // National ID, birth certificate, passport
	SubjectDistributionEvidence SubjectKind = "distribution_evidence" // Photo proving aid reached a beneficiary
	SubjectCostLineItem         SubjectKind = "cost_line_item"        // One line of a provider's cost breakdown
	SubjectCrisisClaim          SubjectKind = "crisis_claim"          // Declared crisis with an affected population
)

// Valid reports whether the kind is one the engine knows how to verify
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectIdentityDocument, SubjectDistributionEvidence, SubjectCostLineItem, SubjectCrisisClaim:
		return true
	default:
		return false
	}
}

// Subject is one submission entering the verification engine.
// Exactly one of the kind-specific payloads is expected to be set.
type Subject struct {
	Kind        SubjectKind `json:"kind" yaml:"kind"`
	EntityID    string      `json:"entity_id" yaml:"entity_id"`       // Beneficiary, provider or crisis id
	EvidenceRef string      `json:"evidence_ref" yaml:"evidence_ref"` // Image URI, location or text reference
	SubmittedAt time.Time   `json:"submitted_at" yaml:"submitted_at"`

	Identity     *IdentityEvidence     `json:"identity,omitempty" yaml:"identity,omitempty"`
	Distribution *DistributionEvidence `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Cost         *CostEvidence         `json:"cost,omitempty" yaml:"cost,omitempty"`
	Crisis       *CrisisEvidence       `json:"crisis,omitempty" yaml:"crisis,omitempty"`
}

// ImageSignals are measurements taken from an uploaded image by the caller.
// The engine never decodes images itself.
type ImageSignals struct {
	Width            int      `json:"width" yaml:"width"`
	Height           int      `json:"height" yaml:"height"`
	Sharpness        float64  `json:"sharpness" yaml:"sharpness"` // 0 (blurred) .. 1 (crisp)
	Glare            float64  `json:"glare" yaml:"glare"`         // 0 (none) .. 1 (washed out)
	SecurityFeatures []string `json:"security_features,omitempty" yaml:"security_features,omitempty"`
}

// LongEdge returns the larger image dimension in pixels
func (s ImageSignals) LongEdge() int {
	if s.Width > s.Height {
		return s.Width
	}
	return s.Height
}

// IdentityEvidence is the payload of an identity document submission
type IdentityEvidence struct {
	IDNumber string       `json:"id_number" yaml:"id_number"`
	FullName string       `json:"full_name" yaml:"full_name"`
	Image    ImageSignals `json:"image" yaml:"image"`
}

// DistributionEvidence is the payload of a distribution photo submission
type DistributionEvidence struct {
	Image                ImageSignals `json:"image" yaml:"image"`
	LandmarkConsistency  float64      `json:"landmark_consistency" yaml:"landmark_consistency"`   // 0..1
	LightingConsistency  float64      `json:"lighting_consistency" yaml:"lighting_consistency"`   // 0..1
	CompressionArtifacts float64      `json:"compression_artifacts" yaml:"compression_artifacts"` // 0..1
	CaptureRegion        string       `json:"capture_region,omitempty" yaml:"capture_region,omitempty"`
	ClaimedRegion        string       `json:"claimed_region,omitempty" yaml:"claimed_region,omitempty"`
}

// CostEvidence is the payload of a cost line item
type CostEvidence struct {
	Amount   float64 `json:"amount" yaml:"amount"`
	Category string  `json:"category" yaml:"category"`
}

// CrisisEvidence is the payload of a crisis claim
type CrisisEvidence struct {
	AffectedPopulation int      `json:"affected_population" yaml:"affected_population"`
	Region             string   `json:"region,omitempty" yaml:"region,omitempty"`
	Sources            []string `json:"sources,omitempty" yaml:"sources,omitempty"` // Corroborating source URLs
}

// AuthorityTier represents the classification of a corroborating source
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government disaster agencies, UN bodies
	TierSecondary AuthorityTier = 2 // Established NGOs, major media
	TierTertiary  AuthorityTier = 3 // Everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// IdentityRecord is one entry of an identity registry snapshot
type IdentityRecord struct {
	Key      string `json:"key" yaml:"key"` // Registry key, usually the beneficiary id
	IDNumber string `json:"id_number" yaml:"id_number"`
	FullName string `json:"full_name" yaml:"full_name"`
}
