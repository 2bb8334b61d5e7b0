package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"autolead-bot/internal/models"
)

const classificationSchema = `{
	"type": "object",
	"required": ["intent", "confidence"],
	"properties": {
		"intent": {
			"type": "string",
			"enum": ["buy_new", "buy_used", "sell", "repair", "spares", "accounting", "other"]
		},
		"target_brand": {"type": ["string", "null"]},
		"user_car_brand": {"type": ["string", "null"]},
		"slots": {"type": ["object", "null"]},
		"confidence": {
			"type": "string",
			"enum": ["high", "medium", "low"]
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(classificationSchema)

// ExtractJSON locates the JSON object inside a model reply that may be
// wrapped in markdown fences or conversational text. It takes the substring
// from the first '{' to the last '}'.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return text[start : end+1], nil
}

// ParseClassification validates the candidate JSON against the
// classification schema and unmarshals it.
func ParseClassification(jsonText string) (models.ClassificationResult, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return models.ClassificationResult{}, fmt.Errorf("response failed schema validation: %s", strings.Join(issues, "; "))
	}

	var cr models.ClassificationResult
	if err := json.Unmarshal([]byte(jsonText), &cr); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("failed to unmarshal classification: %w", err)
	}

	// JSON nulls inside slots survive as nil map values, drop them
	for key, value := range cr.Slots {
		if value == nil {
			delete(cr.Slots, key)
		}
	}
	if cr.Slots == nil {
		cr.Slots = models.Slots{}
	}
	return cr, nil
}
