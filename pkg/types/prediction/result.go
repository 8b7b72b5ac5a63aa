package prediction

// DefaultMoleculeID is the identifier synthesized for single-molecule
// responses, whose wire format carries no ID field.
const DefaultMoleculeID = "molecule_1"

// PredictionResult is one (molecule, model) prediction pair, normalized
// from either wire shape. Optional string fields are empty when the wire
// carried nothing or the "-" placeholder; optional numeric fields are nil.
type PredictionResult struct {
	// ID is the caller-assigned molecule key for batch requests, or the
	// synthesized DefaultMoleculeID for single-molecule requests.
	ID string

	// SMILES echoes the submitted structure.
	SMILES string

	// PredictedValue is the display string including units,
	// e.g. "0.066 g/L".
	PredictedValue string

	// PredictedNumerical is the prediction converted to the model's
	// internal/log unit.
	PredictedNumerical float64

	// ApplicabilityDomain is the service's categorical confidence
	// indicator, e.g. "Inside (T/L/E/R)".
	ApplicabilityDomain string

	PredictedValueModelUnits     string
	PredictedNumericalModelUnits *float64

	ExperimentalValue               string
	ExperimentalNumerical           *float64
	ExperimentalValueModelUnits     string
	ExperimentalNumericalModelUnits *float64

	// Probability arrives as either a number or a string on the wire and
	// is carried as its string rendering.
	Probability string

	ChemicalName      string
	CAS               string
	ECNumber          string
	StructuralFormula string
	OtherRegulatoryID string
}

// PredictionResponse is the unified result collection: model display name →
// ordered list of per-molecule results, regardless of which wire shape was
// received. Order within a model's list is not guaranteed to follow the
// caller's molecule order; look up by molecule ID instead of by position.
type PredictionResponse struct {
	// Predictions maps model display names (e.g. "Water solubility") to
	// their per-molecule results.
	Predictions map[string][]PredictionResult

	// Extra holds supplementary metadata delivered through the
	// X-Extra-JSON response header, when present and parseable.
	Extra map[string]interface{}
}

// ModelResults returns the results for one model display name, or nil when
// the model is absent from the response.
func (r *PredictionResponse) ModelResults(modelName string) []PredictionResult {
	return r.Predictions[modelName]
}

// MoleculeResults collects every model's result for one molecule ID. This
// is the primary access pattern; it scans all models and returns a map from
// model display name to that molecule's result.
func (r *PredictionResponse) MoleculeResults(moleculeID string) map[string]PredictionResult {
	out := make(map[string]PredictionResult)
	for modelName, results := range r.Predictions {
		for _, res := range results {
			if res.ID == moleculeID {
				out[modelName] = res
				break
			}
		}
	}
	return out
}

// ModelNames returns the model display names present in the response.
func (r *PredictionResponse) ModelNames() []string {
	names := make([]string, 0, len(r.Predictions))
	for name := range r.Predictions {
		names = append(names, name)
	}
	return names
}
