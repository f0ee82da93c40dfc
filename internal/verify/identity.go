package verify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/score"
)

// Image quality deductions from a perfect 100
const (
	resolutionHigh   = 1200 // long edge in px with no deduction
	resolutionMedium = 800
	sharpnessFloor   = 0.6
	glareCeiling     = 0.3
)

func (e *Engine) verifyIdentity(subject model.Subject, vctx Context) outcome {
	id := subject.Identity
	var out outcome

	quality, qualitySignal, reasons := e.imageQuality(id.Image)
	out.confidence = quality
	out.signals = append(out.signals, qualitySignal)
	if quality < e.config.PoorImageThreshold {
		out.alert(model.AlertPoorImageQuality, model.SeverityMedium,
			fmt.Sprintf("Document image quality %d/100 is below %d", quality, e.config.PoorImageThreshold),
			reasons...)
	}

	missing, securitySignal := e.securityFeatures(id.Image)
	out.signals = append(out.signals, securitySignal)
	if len(missing) > 0 {
		out.alert(model.AlertMissingSecurityFeature, model.SeverityHigh,
			"Required security features were not detected on the document",
			missing...)
	}

	if len(vctx.Registry) > 0 && strings.TrimSpace(id.IDNumber) != "" {
		dup := e.detector.CheckDuplicateIdentityFor(subject.EntityID, id.IDNumber, id.FullName, vctx.Registry)

		out.signals = append(out.signals, model.Signal{
			Check:       "duplicate_identity",
			Passed:      !dup.IsDuplicate,
			Description: fmt.Sprintf("%d related, %d conflicting registry records", len(dup.RelatedRecords), len(dup.Conflicts)),
			Data: map[string]interface{}{
				"registry_size":        len(vctx.Registry),
				"related":              len(dup.RelatedRecords),
				"conflicts":            len(dup.Conflicts),
				"similarity_threshold": e.fraud.SimilarityThreshold,
			},
		})

		if dup.IsDuplicate {
			out.alert(model.AlertDuplicateIdentity, model.SeverityCritical,
				"Identity number and name already registered to another beneficiary",
				describeRelated(dup.RelatedRecords)...)
		}
		if len(dup.Conflicts) > 0 {
			out.alert(model.AlertIdentityNumberReuse, model.SeverityHigh,
				"Identity number is registered under a different name",
				describeRelated(dup.Conflicts)...)
		}
	}

	return out
}

// imageQuality is the placeholder OCR/quality rule. It deducts points for
// low resolution, blur and glare and bounds the result to
// [MinImageConfidence, 100].
func (e *Engine) imageQuality(img model.ImageSignals) (int, model.Signal, []string) {
	var reasons []string
	deduction := 0.0

	longEdge := img.LongEdge()
	switch {
	case longEdge >= resolutionHigh:
	case longEdge >= resolutionMedium:
		deduction += 10
		reasons = append(reasons, fmt.Sprintf("medium resolution (%dpx long edge)", longEdge))
	default:
		deduction += 20
		reasons = append(reasons, fmt.Sprintf("low resolution (%dpx long edge)", longEdge))
	}

	sharpness := clamp01(img.Sharpness)
	if sharpness < sharpnessFloor {
		deduction += (sharpnessFloor - sharpness) * 50
		reasons = append(reasons, fmt.Sprintf("blurred image (sharpness %.2f)", sharpness))
	}

	glare := clamp01(img.Glare)
	if glare > glareCeiling {
		deduction += (glare - glareCeiling) * 40
		reasons = append(reasons, fmt.Sprintf("glare on document (%.2f)", glare))
	}

	quality := score.Clamp(score.Bound(100-deduction), e.config.MinImageConfidence, score.Max)

	return quality, model.Signal{
		Check:       "image_quality",
		Score:       quality,
		Passed:      quality >= e.config.PoorImageThreshold,
		Description: fmt.Sprintf("Image quality %d/100", quality),
		Data: map[string]interface{}{
			"long_edge_px": longEdge,
			"sharpness":    sharpness,
			"glare":        glare,
			"deduction":    deduction,
			"formula":      "clamp(100 - resolution - (0.6-sharpness)*50 - (glare-0.3)*40, min, 100)",
		},
	}, reasons
}

// securityFeatures returns the required features absent from the image
func (e *Engine) securityFeatures(img model.ImageSignals) ([]string, model.Signal) {
	present := make(map[string]bool, len(img.SecurityFeatures))
	for _, f := range img.SecurityFeatures {
		present[strings.ToLower(strings.TrimSpace(f))] = true
	}

	var missing []string
	for _, req := range e.config.RequiredSecurityFeatures {
		if !present[strings.ToLower(strings.TrimSpace(req))] {
			missing = append(missing, req)
		}
	}

	return missing, model.Signal{
		Check:       "security_features",
		Passed:      len(missing) == 0,
		Description: fmt.Sprintf("%d of %d required security features detected", len(e.config.RequiredSecurityFeatures)-len(missing), len(e.config.RequiredSecurityFeatures)),
		Data: map[string]interface{}{
			"required": e.config.RequiredSecurityFeatures,
			"detected": img.SecurityFeatures,
			"missing":  missing,
		},
	}
}

func describeRelated(records []model.RelatedRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = fmt.Sprintf("%s (similarity %.2f)", r.IdentityKey, r.Similarity)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
