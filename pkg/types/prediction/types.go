// Package prediction defines the data types, enumerations, and model catalog
// for the ProtoPRED prediction API.  No I/O lives here — only plain data
// types and pure validation that are safe to import from any layer.
package prediction

import (
	"fmt"
)

// Module selects which model catalog applies to a request.
type Module string

const (
	// ModuleProtoPHYSCHEM covers physicochemical property models
	// (melting point, water solubility, log Kow, ...).
	ModuleProtoPHYSCHEM Module = "ProtoPHYSCHEM"

	// ModuleProtoADME covers absorption, distribution, metabolism and
	// excretion models.
	ModuleProtoADME Module = "ProtoADME"
)

// ParseModule converts a string into a Module, accepting the exact wire
// spelling only.
func ParseModule(s string) (Module, error) {
	switch Module(s) {
	case ModuleProtoPHYSCHEM, ModuleProtoADME:
		return Module(s), nil
	}
	return "", fmt.Errorf("unknown module %q (valid: %s, %s)", s, ModuleProtoPHYSCHEM, ModuleProtoADME)
}

// InputType tags how the input payload travels on the wire.
type InputType string

const (
	// InputSMILESText submits a single SMILES string as a form field.
	InputSMILESText InputType = "SMILES_TEXT"

	// InputSMILESFile submits multiple molecules, either as an uploaded
	// file part or as a JSON-embedded molecule mapping.
	InputSMILESFile InputType = "SMILES_FILE"
)

// OutputType selects the response encoding.
type OutputType string

const (
	// OutputJSON requests the model-name-keyed JSON response (default).
	OutputJSON OutputType = "JSON"

	// OutputXLSX requests a binary spreadsheet response.
	OutputXLSX OutputType = "XLSX"
)

// Molecule is one input structure with its optional registry metadata.
// SMILES is treated as an opaque identifier string; the client performs no
// chemical validation.
type Molecule struct {
	SMILES            string `json:"SMILES"`
	CAS               string `json:"CAS,omitempty"`
	ChemicalName      string `json:"Chemical name,omitempty"`
	ECNumber          string `json:"EC number,omitempty"`
	StructuralFormula string `json:"Structural formula,omitempty"`
}

// Validate checks the molecule is submittable. Only SMILES is required.
func (m Molecule) Validate() error {
	if m.SMILES == "" {
		return fmt.Errorf("molecule SMILES must not be empty")
	}
	return nil
}
