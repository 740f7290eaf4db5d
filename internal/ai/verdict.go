package ai

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ecohunt/serverless-backend/internal/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// MaxPoints bounds a single verdict.
const MaxPoints = 100

// Tool describes validate_disposal; every field is required.
func Tool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        ToolName,
			Description: "Validate waste disposal and assign points",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"valid":     {Type: jsonschema.Boolean},
					"wasteType": {Type: jsonschema.String},
					"points":    {Type: jsonschema.Integer, Description: "0-100"},
					"feedback":  {Type: jsonschema.String},
				},
				Required:             []string{"valid", "wasteType", "points", "feedback"},
				AdditionalProperties: false,
			},
		},
	}
}

// rawVerdict uses pointers so that absent fields are distinguishable from
// zero values.
type rawVerdict struct {
	Valid     *bool    `json:"valid"`
	WasteType *string  `json:"wasteType"`
	Points    *float64 `json:"points"`
	Feedback  *string  `json:"feedback"`
}

// ParseVerdict decodes tool-call arguments. Unknown fields, missing fields,
// wrong JSON types, trailing data, and points that are not an integer in
// [0, MaxPoints] are all rejected with ErrMalformedVerdict.
func ParseVerdict(args string) (models.Verdict, error) {
	dec := json.NewDecoder(strings.NewReader(args))
	dec.DisallowUnknownFields()

	var raw rawVerdict
	if err := dec.Decode(&raw); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return models.Verdict{}, fmt.Errorf("%w: trailing data", ErrMalformedVerdict)
	}

	var missing []string
	if raw.Valid == nil {
		missing = append(missing, "valid")
	}
	if raw.WasteType == nil {
		missing = append(missing, "wasteType")
	}
	if raw.Points == nil {
		missing = append(missing, "points")
	}
	if raw.Feedback == nil {
		missing = append(missing, "feedback")
	}
	if len(missing) > 0 {
		return models.Verdict{}, fmt.Errorf("%w: missing %s", ErrMalformedVerdict, strings.Join(missing, ", "))
	}

	p := *raw.Points
	if p != math.Trunc(p) || p < 0 || p > MaxPoints {
		return models.Verdict{}, fmt.Errorf("%w: points %v out of range", ErrMalformedVerdict, p)
	}

	return models.Verdict{
		Valid:     *raw.Valid,
		WasteType: *raw.WasteType,
		Points:    int(p),
		Feedback:  *raw.Feedback,
	}, nil
}
