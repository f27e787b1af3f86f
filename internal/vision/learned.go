// Package vision holds the optional detection adapters: the learned object
// detector and the external vision counter. Both fail soft; the pipeline
// falls through to the geometric cascade when they cannot answer.
package vision

import (
	"image"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"roll-counter/internal/config"
	"roll-counter/internal/detect"
	"roll-counter/internal/model"
	"roll-counter/pkg/geometry"
)

// Minimum confidence for a learned detection to count.
const learnedConfidenceMin = 0.25

// SSD input geometry and normalization.
const learnedInputSize = 300

// classNames maps SSD class indices to labels. Index 0 is background.
var classNames = []string{
	"background",
	"pink roll",
	"orange roll",
	"yellow roll",
	"white roll",
}

// LearnedDetector wraps a trained SSD network loaded through the OpenCV DNN
// module. Construction never fails: a missing or unloadable model yields a
// detector whose Detect returns nothing.
type LearnedDetector struct {
	mu     sync.Mutex // Net.Forward is not safe for concurrent use
	net    gocv.Net
	loaded bool
	log    zerolog.Logger
}

// NewLearnedDetector loads the model named by the configuration. When the
// model is disabled, unset, or fails to load, the returned detector is inert.
func NewLearnedDetector(cfg *config.Config, log zerolog.Logger) *LearnedDetector {
	d := &LearnedDetector{log: log}

	if cfg == nil || !cfg.LearnedModelEnabled || cfg.ModelPath == "" {
		return d
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ModelConfigPath)
	if net.Empty() {
		log.Warn().Str("model", cfg.ModelPath).Msg("could not load detection model")
		return d
	}

	if strings.EqualFold(cfg.ComputeDevice, "gpu") {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	d.net = net
	d.loaded = true
	log.Info().Str("model", cfg.ModelPath).Str("device", cfg.ComputeDevice).Msg("detection model loaded")
	return d
}

// Loaded reports whether a usable network is attached.
func (d *LearnedDetector) Loaded() bool { return d.loaded }

// Close releases the network. Safe on an inert detector.
func (d *LearnedDetector) Close() error {
	if d.loaded {
		d.loaded = false
		return d.net.Close()
	}
	return nil
}

// Detect runs the network over the full image and returns detections whose
// center falls inside the rack region. An inert detector returns nil, nil.
func (d *LearnedDetector) Detect(img gocv.Mat, reg geometry.RectInt) ([]detect.LearnedBox, error) {
	if !d.loaded {
		return nil, nil
	}

	blob := gocv.BlobFromImage(img, 1.0/127.5,
		image.Pt(learnedInputSize, learnedInputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	// SSD output rows are [batch, class, confidence, x1, y1, x2, y2] with
	// coordinates normalized to the input image.
	rows := output.Reshape(1, output.Total()/7)
	defer rows.Close()

	cols, imgRows := float32(img.Cols()), float32(img.Rows())

	var results []detect.LearnedBox
	for i := 0; i < rows.Rows(); i++ {
		confidence := rows.GetFloatAt(i, 2)
		if confidence < learnedConfidenceMin {
			continue
		}

		classID := int(rows.GetFloatAt(i, 1))
		x1 := int(rows.GetFloatAt(i, 3) * cols)
		y1 := int(rows.GetFloatAt(i, 4) * imgRows)
		x2 := int(rows.GetFloatAt(i, 5) * cols)
		y2 := int(rows.GetFloatAt(i, 6) * imgRows)

		bounds := geometry.RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
		if bounds.Width <= 0 || bounds.Height <= 0 {
			continue
		}
		if !reg.ContainsPoint(bounds.Center()) {
			continue
		}

		name := className(classID)
		results = append(results, detect.LearnedBox{
			Bounds:     bounds,
			Confidence: float64(confidence),
			ClassName:  name,
			Color:      colorFromClass(name),
		})
	}

	return results, nil
}

func className(classID int) string {
	if classID > 0 && classID < len(classNames) {
		return classNames[classID]
	}
	return model.DefaultLabel
}

// colorFromClass maps a class name to the color vocabulary used in
// breakdowns. Unrecognized names return "" and the caller samples pixels
// instead.
func colorFromClass(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "pink") || strings.Contains(lower, "rose"):
		return "pink"
	case strings.Contains(lower, "orange") || strings.Contains(lower, "brown"):
		return "orange"
	case strings.Contains(lower, "yellow"):
		return "yellow"
	case strings.Contains(lower, "white"):
		return "white"
	case strings.Contains(lower, "red"):
		return "red"
	case strings.Contains(lower, "blue"):
		return "blue"
	case strings.Contains(lower, "green"):
		return "green"
	default:
		return ""
	}
}
