package guide

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/five82/brickguide/internal/options"
)

const (
	analyzePath = "/api/guide/analyze"
	stepsPath   = "/api/guide/steps"
)

// Envelope is a fully built request body. It is immutable so every retry
// sends identical bytes.
type Envelope struct {
	Method      string
	Path        string
	ContentType string
	body        []byte
}

// Body returns a fresh reader over the request body.
func (e Envelope) Body() *bytes.Reader {
	return bytes.NewReader(e.body)
}

// Len reports the body size in bytes.
func (e Envelope) Len() int {
	return len(e.body)
}

// Image is an uploaded picture.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// AnalyzeSource names what to analyse: a new image or a previous analysis.
// Exactly one of Image and AnalysisID must be set.
type AnalyzeSource struct {
	Image      *Image
	AnalysisID string
}

// StepsRequest asks the service to turn a prior analysis into ordered steps.
type StepsRequest struct {
	AnalysisID string
	BrickTypes []string
	Optimize   bool
}

// NewAnalyzeEnvelope builds the multipart body for an analysis. The option
// values are written several times under historical field names so older
// service deployments still pick them up.
func NewAnalyzeEnvelope(opts options.AnalyzeOptions, src AnalyzeSource) (Envelope, error) {
	hasImage := src.Image != nil
	analysisID := strings.TrimSpace(src.AnalysisID)
	if hasImage == (analysisID != "") {
		return Envelope{}, fmt.Errorf("analyze requires exactly one of image or analysis id")
	}
	if hasImage && len(src.Image.Data) == 0 {
		return Envelope{}, fmt.Errorf("image %q is empty", src.Image.Name)
	}

	opts = opts.Canonical()
	typesJSON, err := json.Marshal(opts.BrickTypes)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode brick types: %w", err)
	}
	optionsJSON, err := json.Marshal(optionFields(opts))
	if err != nil {
		return Envelope{}, fmt.Errorf("encode options: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if hasImage {
		if err := writeImagePart(w, src.Image); err != nil {
			return Envelope{}, err
		}
	} else {
		if err := writeFields(w, [][2]string{
			{"analysisId", analysisID},
			{"analysis_id", analysisID},
		}); err != nil {
			return Envelope{}, err
		}
	}

	color := strconv.Itoa(opts.ColorLimit)
	fields := [][2]string{
		{"options", string(optionsJSON)},
		{"gridSize", string(opts.GridSize)},
		{"grid_size", string(opts.GridSize)},
		{"colorLimit", color},
		{"color_limit", color},
		{"brickMode", string(opts.BrickMode)},
		{"brick_mode", string(opts.BrickMode)},
		{"brickTypes", string(typesJSON)},
		{"brick_types", string(typesJSON)},
	}
	for _, id := range opts.BrickTypes {
		fields = append(fields, [2]string{"brickType", id}, [2]string{"brick_type", id})
	}
	if err := writeFields(w, fields); err != nil {
		return Envelope{}, err
	}
	if err := w.Close(); err != nil {
		return Envelope{}, fmt.Errorf("close multipart body: %w", err)
	}

	return Envelope{
		Method:      http.MethodPost,
		Path:        analyzePath,
		ContentType: w.FormDataContentType(),
		body:        buf.Bytes(),
	}, nil
}

// NewStepsEnvelope builds the JSON body for step generation.
func NewStepsEnvelope(req StepsRequest) (Envelope, error) {
	id := strings.TrimSpace(req.AnalysisID)
	if id == "" {
		return Envelope{}, fmt.Errorf("steps require an analysis id")
	}
	types := options.FilterBrickTypes(req.BrickTypes)
	payload := map[string]any{
		"analysisId":  id,
		"analysis_id": id,
		"brickTypes":  types,
		"brick_types": types,
		"optimize":    req.Optimize,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode steps request: %w", err)
	}
	return Envelope{
		Method:      http.MethodPost,
		Path:        stepsPath,
		ContentType: "application/json",
		body:        body,
	}, nil
}

func optionFields(opts options.AnalyzeOptions) map[string]any {
	return map[string]any{
		"gridSize":    string(opts.GridSize),
		"grid_size":   string(opts.GridSize),
		"colorLimit":  opts.ColorLimit,
		"color_limit": opts.ColorLimit,
		"brickMode":   string(opts.BrickMode),
		"brick_mode":  string(opts.BrickMode),
		"brickTypes":  opts.BrickTypes,
		"brick_types": opts.BrickTypes,
	}
}

func writeImagePart(w *multipart.Writer, img *Image) error {
	name := filepath.Base(strings.TrimSpace(img.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "image"
	}
	contentType := strings.TrimSpace(img.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("write image part: %w", err)
	}
	return nil
}

func writeFields(w *multipart.Writer, fields [][2]string) error {
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	return nil
}
