package detect

import (
	"context"
	goimage "image"
	"image/color"
	"math"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"roll-counter/internal/config"
	"roll-counter/internal/image"
	"roll-counter/internal/model"
	"roll-counter/internal/region"
	"roll-counter/pkg/colorutil"
	"roll-counter/pkg/geometry"
)

// CountHint is the output of an external counting service: a count and a
// dominant color, but no trusted geometry.
type CountHint struct {
	Count      int
	Color      string
	Confidence float64
}

// LearnedBox is one detection from the learned object detector, in pixel
// coordinates.
type LearnedBox struct {
	Bounds     geometry.RectInt
	Confidence float64
	ClassName  string
	Color      string
}

// ExternalCounter counts rolls via a remote vision service. A nil hint with
// a nil error means the service declined to answer.
type ExternalCounter interface {
	Count(ctx context.Context, img goimage.Image) (*CountHint, error)
}

// Learned runs a trained object detection model over the image. An empty
// slice with a nil error means the model found nothing (or is not loaded).
type Learned interface {
	Detect(img gocv.Mat, reg geometry.RectInt) ([]LearnedBox, error)
}

// Confidence reported for boxes whose geometry came from the cascade rather
// than a model.
const geometricConfidence = 0.5

// Number of ring samples taken per box for color classification.
const colorSamples = 8

// Pipeline runs the full detection cascade: external counter, learned
// detector, then the geometric strategies. Each stage degrades to the next
// on error or empty output; only an undecodable image is fatal.
type Pipeline struct {
	params   Params
	autoCrop bool
	external ExternalCounter
	learned  Learned
	log      zerolog.Logger
}

// NewPipeline assembles a pipeline. Either adapter may be nil; the cascade
// then starts at the next stage.
func NewPipeline(cfg *config.Config, external ExternalCounter, learned Learned, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		params:   DefaultParams().WithConfig(cfg),
		autoCrop: cfg == nil || cfg.AutoCrop,
		external: external,
		learned:  learned,
		log:      log,
	}
}

// Analyze runs detection on the image at path and returns the unified
// result. The only fatal errors are an unreadable or undecodable input and
// context cancellation; adapter failures are logged and the cascade moves
// on.
func (p *Pipeline) Analyze(ctx context.Context, path string) (*model.DetectionResult, error) {
	mat, err := image.ReadMat(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	var cropInfo *model.CropInfo
	if p.autoCrop {
		cropped, info := region.AutoCrop(mat)
		mat.Close()
		mat = cropped
		cropInfo = info
		if info != nil {
			p.log.Debug().
				Float64("reduction_pct", info.ReductionPercent).
				Msg("auto-cropped to rack area")
		}
	}

	loc, ok := region.Locate(mat)
	if !ok {
		p.log.Debug().Msg("no rack region found, using whole image")
		loc = region.WholeImage(mat)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 1: external counter. The count is a hint only; geometry is
	// always re-derived locally.
	if p.external != nil {
		hint, err := p.external.Count(ctx, image.MatToImage(mat))
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn().Err(err).Msg("external vision failed, continuing cascade")
		case hint != nil && hint.Count > 0:
			p.log.Info().
				Int("count", hint.Count).
				Str("color", hint.Color).
				Msg("external vision count accepted")
			sr := p.params.Geometric(mat, loc, hint.Count, p.log)
			if len(sr.Circles) > 0 {
				boxes := p.circlesToBoxes(mat, sr.Circles, hint.Color)
				return p.result(boxes, model.MethodExternalVision, cropInfo), nil
			}
			p.log.Warn().Msg("could not localize externally counted rolls")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: learned object detector.
	if p.learned != nil {
		learned, err := p.learned.Detect(mat, loc.Region)
		if err != nil {
			p.log.Warn().Err(err).Msg("learned detector failed, continuing cascade")
		} else if len(learned) > 0 {
			p.log.Info().Int("count", len(learned)).Msg("learned detector boxes accepted")
			boxes := p.learnedToBoxes(mat, learned)
			return p.result(boxes, model.MethodLearnedModel, cropInfo), nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: geometric cascade. Its answer is final, even when empty.
	sr := p.params.Geometric(mat, loc, 0, p.log)
	boxes := p.circlesToBoxes(mat, sr.Circles, "")
	return p.result(boxes, sr.Strategy.Method(), cropInfo), nil
}

func (p *Pipeline) result(boxes []model.DetectedBox, method model.Method, crop *model.CropInfo) *model.DetectionResult {
	return &model.DetectionResult{
		TotalCount:     len(boxes),
		ColorBreakdown: model.BreakdownFromBoxes(boxes),
		Boxes:          boxes,
		Method:         method,
		CropInfo:       crop,
	}
}

// circlesToBoxes converts cascade circles to percent-space boxes, sampling
// each ring for color. fallbackColor fills in where sampling is
// inconclusive.
func (p *Pipeline) circlesToBoxes(mat gocv.Mat, circles []geometry.Circle, fallbackColor string) []model.DetectedBox {
	w, h := float64(mat.Cols()), float64(mat.Rows())

	boxes := make([]model.DetectedBox, 0, len(circles))
	for _, c := range circles {
		col := sampleRingColor(mat, c)
		if col == colorutil.Unknown && fallbackColor != "" {
			col = fallbackColor
		}

		b := model.DetectedBox{
			X:          (c.Center.X - c.Radius) / w * 100,
			Y:          (c.Center.Y - c.Radius) / h * 100,
			Width:      2 * c.Radius / w * 100,
			Height:     2 * c.Radius / h * 100,
			Label:      model.DefaultLabel,
			Color:      col,
			Confidence: geometricConfidence,
		}
		boxes = append(boxes, b.Clamp())
	}
	return boxes
}

// learnedToBoxes converts pixel-space model detections to percent space.
func (p *Pipeline) learnedToBoxes(mat gocv.Mat, learned []LearnedBox) []model.DetectedBox {
	w, h := float64(mat.Cols()), float64(mat.Rows())

	boxes := make([]model.DetectedBox, 0, len(learned))
	for _, lb := range learned {
		label := lb.ClassName
		if label == "" {
			label = model.DefaultLabel
		}
		col := lb.Color
		if col == "" {
			r := lb.Bounds
			c := geometry.Circle{
				Center: geometry.Point2D{X: float64(r.X) + float64(r.Width)/2, Y: float64(r.Y) + float64(r.Height)/2},
				Radius: math.Min(float64(r.Width), float64(r.Height)) / 2,
			}
			col = sampleRingColor(mat, c)
		}

		b := model.DetectedBox{
			X:          float64(lb.Bounds.X) / w * 100,
			Y:          float64(lb.Bounds.Y) / h * 100,
			Width:      float64(lb.Bounds.Width) / w * 100,
			Height:     float64(lb.Bounds.Height) / h * 100,
			Label:      label,
			Color:      col,
			Confidence: lb.Confidence,
		}
		boxes = append(boxes, b.Clamp())
	}
	return boxes
}

// sampleRingColor classifies the roll face by sampling BGR pixels on a ring
// at 0.6 radius, off the center hole but inside the face.
func sampleRingColor(mat gocv.Mat, c geometry.Circle) string {
	w, h := mat.Cols(), mat.Rows()
	r := c.Radius * 0.6

	samples := make([]color.RGBA, 0, colorSamples)
	for i := 0; i < colorSamples; i++ {
		angle := 2 * math.Pi * float64(i) / float64(colorSamples)
		x := int(c.Center.X + r*math.Cos(angle))
		y := int(c.Center.Y + r*math.Sin(angle))
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		samples = append(samples, color.RGBA{
			R: mat.GetUCharAt(y, x*3+2),
			G: mat.GetUCharAt(y, x*3+1),
			B: mat.GetUCharAt(y, x*3+0),
			A: 255,
		})
	}
	return colorutil.ClassifySamples(samples)
}
