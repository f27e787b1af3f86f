package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"roll-counter/internal/config"
	"roll-counter/internal/detect"
	imageutil "roll-counter/internal/image"
)

// Long edge of the image sent to the remote service. Keeps request bodies
// small without losing countability.
const externalMaxDim = 1536

const externalJPEGQuality = 85

const countPrompt = `You are looking at a photo of cylindrical thread rolls stored in a caged rack, viewed end-on so each roll appears as a circle. Count every roll carefully, row by row. Respond with ONLY a JSON object, no other text: {"count": <total number of rolls>, "color": "<dominant roll color>", "confidence": <0.0-1.0>}`

// jsonObject extracts the first brace-delimited object from free-form model
// output.
var jsonObject = regexp.MustCompile(`\{[^{}]+\}`)

// ExternalVision asks a hosted multimodal model to count the rolls. It
// returns a count and dominant color only; box geometry from the remote
// model is never trusted.
type ExternalVision struct {
	url    string
	key    string
	model  string
	client *http.Client
	log    zerolog.Logger
}

// NewExternalVision builds the adapter from configuration. The caller is
// expected to skip construction entirely when the service is disabled.
func NewExternalVision(cfg *config.Config, log zerolog.Logger) *ExternalVision {
	return &ExternalVision{
		url:    cfg.ExternalVisionURL,
		key:    cfg.ExternalVisionKey,
		model:  cfg.ExternalVisionModel,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		log:    log,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type countReply struct {
	Count      int     `json:"count"`
	Color      string  `json:"color"`
	Confidence float64 `json:"confidence"`
}

// Count sends the image to the remote vision model and parses its count
// answer. Every failure mode returns an error; the pipeline degrades to the
// next stage.
func (v *ExternalVision) Count(ctx context.Context, img image.Image) (*detect.CountHint, error) {
	dataURI, err := encodeDataURI(img)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: v.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "image_url", ImageURL: dataURI},
				{Type: "text", Text: countPrompt},
			},
		}},
		MaxTokens: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.key)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision service returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("vision response contained no choices")
	}

	content := parsed.Choices[0].Message.Content
	match := jsonObject.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in vision answer: %.80q", content)
	}

	var reply countReply
	if err := json.Unmarshal([]byte(match), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse vision answer %q: %w", match, err)
	}
	if reply.Count <= 0 {
		return nil, fmt.Errorf("vision answer had non-positive count %d", reply.Count)
	}

	v.log.Debug().
		Int("count", reply.Count).
		Str("color", reply.Color).
		Float64("confidence", reply.Confidence).
		Msg("external vision answered")

	return &detect.CountHint{
		Count:      reply.Count,
		Color:      reply.Color,
		Confidence: reply.Confidence,
	}, nil
}

// encodeDataURI downscales and JPEG-encodes the image as a base64 data URI.
func encodeDataURI(img image.Image) (string, error) {
	small := imageutil.Downscale(img, externalMaxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: externalJPEGQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
