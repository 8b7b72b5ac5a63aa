package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/protoqsar/protopred-go/pkg/errors"
	"github.com/protoqsar/protopred-go/pkg/types/prediction"
)

// extraJSONHeader is the optional response side channel carrying
// supplementary metadata as a JSON-encoded string.
const extraJSONHeader = "X-Extra-JSON"

// placeholder is the wire sentinel for "no value". It is normalized to an
// absent field, never stored verbatim.
const placeholder = "-"

// maxFragmentLen bounds the raw fragment echoed inside parse errors.
const maxFragmentLen = 256

// parseJSONResponse turns a 2xx exchange into the unified PredictionResponse.
// It detects application-level errors hidden in 2xx bodies, decodes the
// side-channel header, and normalizes both wire shapes.
func (c *Client) parseJSONResponse(raw *rawResponse) (*prediction.PredictionResponse, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw.body, &top); err != nil {
		return nil, errors.Parse("", truncate(string(raw.body))).WithCause(err)
	}

	// A 2xx body carrying an error key is an application-level failure.
	if msg, ok := top["error"]; ok && isJSONContentType(raw.header) {
		var text string
		if json.Unmarshal(msg, &text) != nil {
			text = string(msg)
		}
		c.logger.Errorf("API returned error: %s", text)
		return nil, errors.API(raw.status, text)
	}

	resp, err := normalizeResponse(top)
	if err != nil {
		return nil, err
	}
	resp.Extra = decodeExtra(raw.header)
	return resp, nil
}

func isJSONContentType(h http.Header) bool {
	return strings.HasPrefix(h.Get("Content-Type"), "application/json")
}

// decodeExtra parses the X-Extra-JSON header. A malformed header is dropped
// silently; it never fails the call.
func decodeExtra(h http.Header) map[string]interface{} {
	raw := h.Get(extraJSONHeader)
	if raw == "" {
		return nil
	}
	var extra map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		return nil
	}
	return extra
}

// normalizeResponse unifies the two wire shapes into one model-name-keyed
// result collection:
//
//   - shape A (single molecule): model name → result object, no ID on the
//     wire; the constant prediction.DefaultMoleculeID is synthesized.
//   - shape B (batch): model name → result array, each entry carrying the
//     caller's molecule ID.
//
// Any other top-level value type for a model key is a malformed response.
func normalizeResponse(top map[string]json.RawMessage) (*prediction.PredictionResponse, error) {
	predictions := make(map[string][]prediction.PredictionResult, len(top))

	for modelName, rawValue := range top {
		value := bytes.TrimSpace(rawValue)
		switch {
		case len(value) > 0 && value[0] == '{':
			res, err := normalizeResult(modelName, value, prediction.DefaultMoleculeID)
			if err != nil {
				return nil, err
			}
			predictions[modelName] = []prediction.PredictionResult{res}

		case len(value) > 0 && value[0] == '[':
			var entries []json.RawMessage
			if err := json.Unmarshal(value, &entries); err != nil {
				return nil, errors.Parse(modelName, truncate(string(value))).WithCause(err)
			}
			results := make([]prediction.PredictionResult, 0, len(entries))
			for i, entry := range entries {
				res, err := normalizeResult(modelName, entry, fmt.Sprintf("molecule_%d", i+1))
				if err != nil {
					return nil, err
				}
				results = append(results, res)
			}
			predictions[modelName] = results

		default:
			return nil, errors.Parse(modelName, truncate(string(value)))
		}
	}

	return &prediction.PredictionResponse{Predictions: predictions}, nil
}

// wireResult mirrors one raw result object. Most fields stay raw because
// the service mixes numbers, strings and "-" placeholders per field.
type wireResult struct {
	ID                      string          `json:"ID"`
	SMILES                  string          `json:"SMILES"`
	PredictedValue          json.RawMessage `json:"Predicted value"`
	PredictedNumerical      json.RawMessage `json:"Predicted numerical"`
	PredictedValueMU        json.RawMessage `json:"Predicted value (model units)"`
	PredictedNumericalMU    json.RawMessage `json:"Predicted numerical (model units)"`
	ApplicabilityDomain     json.RawMessage `json:"Applicability domain**"`
	ExperimentalValue       json.RawMessage `json:"Experimental value*"`
	ExperimentalNumerical   json.RawMessage `json:"Experimental numerical"`
	ExperimentalValueMU     json.RawMessage `json:"Experimental value (model units)*"`
	ExperimentalNumericalMU json.RawMessage `json:"Experimental numerical (model units)"`
	Probability             json.RawMessage `json:"Probability"`
	ChemicalName            json.RawMessage `json:"Chemical name"`
	CAS                     json.RawMessage `json:"CAS"`
	ECNumber                json.RawMessage `json:"EC number"`
	StructuralFormula       json.RawMessage `json:"Structural formula"`
	OtherRegulatoryID       json.RawMessage `json:"Other Regulatory ID"`
}

// normalizeResult converts one wire result object into a PredictionResult.
// fallbackID is used when the entry carries no ID field (shape A always,
// and shape B entries that omit it).
func normalizeResult(modelName string, data json.RawMessage, fallbackID string) (prediction.PredictionResult, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return prediction.PredictionResult{}, errors.Parse(modelName, truncate(string(data))).WithCause(err)
	}

	fail := func(field string) (prediction.PredictionResult, error) {
		return prediction.PredictionResult{}, errors.Parse(modelName,
			fmt.Sprintf("missing required field %q in %s", field, truncate(string(data))))
	}

	if w.SMILES == "" {
		return fail("SMILES")
	}
	predictedValue, ok := requiredString(w.PredictedValue)
	if !ok {
		return fail("Predicted value")
	}
	predictedNumerical, ok := requiredFloat(w.PredictedNumerical)
	if !ok {
		return fail("Predicted numerical")
	}
	applicability, ok := requiredString(w.ApplicabilityDomain)
	if !ok {
		return fail("Applicability domain**")
	}

	id := w.ID
	if id == "" {
		id = fallbackID
	}

	return prediction.PredictionResult{
		ID:                  id,
		SMILES:              w.SMILES,
		PredictedValue:      predictedValue,
		PredictedNumerical:  predictedNumerical,
		ApplicabilityDomain: applicability,

		PredictedValueModelUnits:     optionalString(w.PredictedValueMU),
		PredictedNumericalModelUnits: optionalFloat(w.PredictedNumericalMU),

		ExperimentalValue:               optionalString(w.ExperimentalValue),
		ExperimentalNumerical:           optionalFloat(w.ExperimentalNumerical),
		ExperimentalValueModelUnits:     optionalString(w.ExperimentalValueMU),
		ExperimentalNumericalModelUnits: optionalFloat(w.ExperimentalNumericalMU),

		Probability: optionalScalar(w.Probability),

		ChemicalName:      optionalString(w.ChemicalName),
		CAS:               optionalString(w.CAS),
		ECNumber:          optionalString(w.ECNumber),
		StructuralFormula: optionalString(w.StructuralFormula),
		OtherRegulatoryID: optionalString(w.OtherRegulatoryID),
	}, nil
}

// requiredString decodes a mandatory string field; the "-" placeholder does
// not satisfy a required field.
func requiredString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	if s == "" || s == placeholder {
		return "", false
	}
	return s, true
}

// requiredFloat decodes a mandatory numeric field. Decoding through a
// pointer keeps JSON null from passing as a zero value.
func requiredFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f *float64
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return 0, false
	}
	return *f, true
}

// optionalString decodes an optional string field, normalizing both absence
// and the "-" placeholder to the empty string.
func optionalString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	if s == placeholder {
		return ""
	}
	return s
}

// optionalFloat decodes an optional numeric field that the wire may also
// deliver as the "-" placeholder or a numeric string.
func optionalFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var f *float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if s == placeholder || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// optionalScalar renders an optional wire value that may be either a number
// or a string (the Probability field) as its string form.
func optionalScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == placeholder {
			return ""
		}
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return ""
}

func truncate(s string) string {
	if len(s) > maxFragmentLen {
		return s[:maxFragmentLen] + "..."
	}
	return s
}
