package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"

	"github.com/protoqsar/protopred-go/pkg/errors"
	"github.com/protoqsar/protopred-go/pkg/types/prediction"
)

// transportMode tags how a built payload travels on the wire.
type transportMode int

const (
	// modeForm is an application/x-www-form-urlencoded POST (single SMILES).
	modeForm transportMode = iota
	// modeJSON embeds the molecule mapping in a JSON body.
	modeJSON
	// modeMultipart streams a local file as the input_data part.
	modeMultipart
)

// inputKind discriminates the PredictionInput union.
type inputKind int

const (
	inputNone inputKind = iota
	inputSMILES
	inputMolecules
	inputFile
)

// PredictionInput is the tagged union of the three accepted input payloads:
// a single SMILES string, a mapping of molecule IDs to molecules, or a path
// to a local input file. It is resolved once, at the client boundary, into
// the wire input_type; all internal logic operates on the resolved form.
type PredictionInput struct {
	kind      inputKind
	smiles    string
	molecules map[string]prediction.Molecule
	filePath  string
}

// SMILESInput submits one molecule as a raw SMILES string.
func SMILESInput(smiles string) PredictionInput {
	return PredictionInput{kind: inputSMILES, smiles: smiles}
}

// MoleculesInput submits a batch of molecules keyed by caller-assigned IDs.
// Map keys are unique by construction; they become the result IDs.
func MoleculesInput(molecules map[string]prediction.Molecule) PredictionInput {
	return PredictionInput{kind: inputMolecules, molecules: molecules}
}

// FileInput uploads a local SMILES file. The file is opened per attempt and
// streamed; it is never loaded into memory as a whole.
func FileInput(path string) PredictionInput {
	return PredictionInput{kind: inputFile, filePath: path}
}

// inputType resolves the union member to the wire input_type tag.
func (in PredictionInput) inputType() prediction.InputType {
	if in.kind == inputSMILES {
		return prediction.InputSMILESText
	}
	return prediction.InputSMILESFile
}

func (in PredictionInput) validate() error {
	switch in.kind {
	case inputSMILES:
		if in.smiles == "" {
			return errors.Validation("SMILES string must not be empty")
		}
	case inputMolecules:
		if len(in.molecules) == 0 {
			return errors.Validation("molecule mapping must not be empty")
		}
		ids := make([]string, 0, len(in.molecules))
		for id := range in.molecules {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if id == "" {
				return errors.Validation("molecule ID must not be empty")
			}
			if err := in.molecules[id].Validate(); err != nil {
				return errors.Validation(fmt.Sprintf("molecule %q: %v", id, err))
			}
		}
	case inputFile:
		info, err := os.Stat(in.filePath)
		if err != nil {
			return errors.File(fmt.Sprintf("input file %q is not readable", in.filePath)).WithCause(err)
		}
		if info.IsDir() {
			return errors.File(fmt.Sprintf("input file %q is a directory", in.filePath))
		}
	default:
		return errors.Validation("prediction input must be set")
	}
	return nil
}

// PredictRequest describes one prediction call.
type PredictRequest struct {
	// Module selects the model catalog.
	Module prediction.Module

	// Models lists the category:name selectors to run. Components are
	// trimmed when the client joins them into the wire models_list.
	Models []string

	// ModelsList optionally supplies a pre-joined models string. It is
	// validated, but passed to the wire verbatim — the client never
	// reassembles a caller-joined string. Ignored when Models is set.
	ModelsList string

	// Input is the molecule payload.
	Input PredictionInput

	// Output selects JSON (default) or XLSX.
	Output prediction.OutputType
}

// payload is a transport-ready request: the flat field set shared by all
// three wire modes, plus the mode-dependent input carrier.
type payload struct {
	mode      transportMode
	fields    map[string]string
	molecules map[string]prediction.Molecule
	filePath  string
}

// buildPayload validates the request and assembles the wire payload.
// It runs entirely locally; no network access.
func (c *Client) buildPayload(req *PredictRequest) (*payload, error) {
	if _, err := prediction.ParseModule(string(req.Module)); err != nil {
		return nil, errors.Validation(err.Error())
	}

	var (
		selectors  []prediction.ModelSelector
		modelsList string
		err        error
	)
	switch {
	case len(req.Models) > 0:
		selectors, err = prediction.ParseSelectors(req.Models)
		if err != nil {
			return nil, err
		}
		modelsList = prediction.JoinSelectors(selectors)
	case req.ModelsList != "":
		selectors, err = prediction.ParseSelectorList(req.ModelsList)
		if err != nil {
			return nil, err
		}
		// Verbatim pass-through for compatibility with strings the caller
		// already formatted for the wire.
		modelsList = req.ModelsList
	default:
		return nil, errors.Validation("models list must not be empty")
	}

	if err := prediction.ValidateModels(req.Module, selectors); err != nil {
		return nil, err
	}
	if err := req.Input.validate(); err != nil {
		return nil, err
	}

	p := &payload{
		fields: map[string]string{
			"account_token":      c.creds.AccountToken,
			"account_secret_key": c.creds.AccountSecretKey,
			"account_user":       c.creds.AccountUser,
			"module":             string(req.Module),
			"models_list":        modelsList,
			"input_type":         string(req.Input.inputType()),
		},
	}
	if req.Output == prediction.OutputXLSX {
		p.fields["output_type"] = string(prediction.OutputXLSX)
	}

	switch req.Input.kind {
	case inputSMILES:
		p.mode = modeForm
		p.fields["input_data"] = req.Input.smiles
	case inputMolecules:
		p.mode = modeJSON
		p.molecules = req.Input.molecules
	case inputFile:
		p.mode = modeMultipart
		p.filePath = req.Input.filePath
	}
	return p, nil
}

// formValues renders the flat field set as URL-encoded form values.
func (p *payload) formValues() url.Values {
	values := url.Values{}
	for k, v := range p.fields {
		values.Set(k, v)
	}
	return values
}

// encodeJSONBody writes the JSON-body wire shape to w.
func encodeJSONBody(w io.Writer, p *payload) error {
	return json.NewEncoder(w).Encode(p.jsonBody())
}

// jsonBody renders the payload as the JSON-body request shape: the flat
// fields plus the molecule mapping under input_data.
func (p *payload) jsonBody() map[string]interface{} {
	body := make(map[string]interface{}, len(p.fields)+1)
	for k, v := range p.fields {
		body[k] = v
	}
	body["input_data"] = p.molecules
	return body
}
