package model

// Method identifies which detection stage produced a result.
type Method int

const (
	MethodNone Method = iota
	// MethodExternalVision: a remote vision service supplied the count hint;
	// positions were re-derived geometrically.
	MethodExternalVision
	// MethodLearnedModel: boxes came from the learned object detector.
	MethodLearnedModel
	// MethodGeometricGrid: calibrated grid built from detected roll centers.
	MethodGeometricGrid
	// MethodGeometricHough: Hough circle parameter sweep.
	MethodGeometricHough
	// MethodGeometricGridFallback: uniform grid partition of the region.
	MethodGeometricGridFallback
)

func (m Method) String() string {
	switch m {
	case MethodExternalVision:
		return "ExternalVision"
	case MethodLearnedModel:
		return "LearnedModel"
	case MethodGeometricGrid:
		return "GeometricGrid"
	case MethodGeometricHough:
		return "GeometricHough"
	case MethodGeometricGridFallback:
		return "GeometricGridFallback"
	default:
		return "None"
	}
}

// DetectionResult is the unified output of one analyze call.
//
// Invariants: TotalCount == len(Boxes) whenever boxes are produced, and the
// color breakdown counts sum to TotalCount (empty sample sets classify as
// "unknown", which is a counted label).
type DetectionResult struct {
	TotalCount     int            `json:"total_count"`
	ColorBreakdown map[string]int `json:"color_breakdown"`
	Boxes          []DetectedBox  `json:"boxes"`
	Method         Method         `json:"method"`
	CropInfo       *CropInfo      `json:"crop_info,omitempty"`
}

// BreakdownFromBoxes builds a color histogram from per-box color labels.
func BreakdownFromBoxes(boxes []DetectedBox) map[string]int {
	breakdown := make(map[string]int, 4)
	for _, b := range boxes {
		label := b.Color
		if label == "" {
			label = "unknown"
		}
		breakdown[label]++
	}
	return breakdown
}
