package verify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/aidmatch/internal/model"
	"github.com/ppiankov/aidmatch/internal/score"
)

// Artifact checks contributing to the deepfake risk score
const (
	artifactLandmarks   = "facial-landmark inconsistency"
	artifactLighting    = "lighting mismatch"
	artifactCompression = "compression artifacts"

	landmarkWeight    = 0.4
	lightingWeight    = 0.3
	compressionWeight = 0.3
)

func (e *Engine) verifyDistribution(subject model.Subject) outcome {
	d := subject.Distribution
	var out outcome

	risk, failed, signal := e.deepfakeRisk(d)
	out.confidence = score.Clamp(score.Max-risk, score.Min, score.Max)
	out.signals = append(out.signals, signal)

	if risk > e.config.DeepfakeThreshold {
		out.alert(model.AlertDeepfakeDetected, model.SeverityHigh,
			fmt.Sprintf("Deepfake risk %d/100 exceeds %d", risk, e.config.DeepfakeThreshold),
			failed...)
	}

	capture := strings.TrimSpace(d.CaptureRegion)
	claimed := strings.TrimSpace(d.ClaimedRegion)
	if capture != "" && claimed != "" && !strings.EqualFold(capture, claimed) {
		out.alert(model.AlertLocationMismatch, model.SeverityMedium,
			"Photo was captured outside the claimed distribution region",
			"captured in "+capture, "claimed "+claimed)
	}

	return out
}

// deepfakeRisk scores manipulation risk in [0,100] from three artifact
// checks and lists the checks that failed their thresholds
func (e *Engine) deepfakeRisk(d *model.DistributionEvidence) (int, []string, model.Signal) {
	landmarks := clamp01(d.LandmarkConsistency)
	lighting := clamp01(d.LightingConsistency)
	compression := clamp01(d.CompressionArtifacts)

	var failed []string
	if landmarks < e.config.LandmarkMin {
		failed = append(failed, artifactLandmarks)
	}
	if lighting < e.config.LightingMin {
		failed = append(failed, artifactLighting)
	}
	if compression > e.config.CompressionMax {
		failed = append(failed, artifactCompression)
	}

	risk := score.Bound(score.WeightedSum(
		score.Part{Name: "landmarks", Value: (1 - landmarks) * 100, Weight: landmarkWeight},
		score.Part{Name: "lighting", Value: (1 - lighting) * 100, Weight: lightingWeight},
		score.Part{Name: "compression", Value: compression * 100, Weight: compressionWeight},
	))

	return risk, failed, model.Signal{
		Check:       "deepfake_risk",
		Score:       risk,
		Passed:      risk <= e.config.DeepfakeThreshold,
		Description: fmt.Sprintf("Deepfake risk %d/100 (%d artifact checks failed)", risk, len(failed)),
		Data: map[string]interface{}{
			"landmark_consistency":  landmarks,
			"lighting_consistency":  lighting,
			"compression_artifacts": compression,
			"failed_checks":         failed,
			"formula":               "(1-landmarks)*40 + (1-lighting)*30 + compression*30",
		},
	}
}
