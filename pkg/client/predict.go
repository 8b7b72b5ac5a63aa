package client

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/protoqsar/protopred-go/pkg/errors"
	"github.com/protoqsar/protopred-go/pkg/types/prediction"
)

// Predict runs one prediction call and returns the normalized JSON response.
// The selectors are validated against the module's catalog before anything
// touches the network. For XLSX output use PredictXLSX.
func (c *Client) Predict(ctx context.Context, req *PredictRequest) (*prediction.PredictionResponse, error) {
	if req.Output == prediction.OutputXLSX {
		return nil, errors.Validation("use PredictXLSX for XLSX output")
	}

	start := time.Now()
	p, err := c.buildPayload(req)
	if err != nil {
		c.observe(string(req.Module), "validation", start)
		return nil, err
	}

	c.logger.Infof("starting prediction: module=%s models=%s input_type=%s",
		req.Module, p.fields["models_list"], p.fields["input_type"])

	raw, err := c.send(ctx, p)
	if err != nil {
		c.observe(string(req.Module), outcomeOf(err), start)
		return nil, err
	}

	resp, err := c.parseJSONResponse(raw)
	if err != nil {
		c.observe(string(req.Module), outcomeOf(err), start)
		return nil, err
	}

	c.observe(string(req.Module), "ok", start)
	c.logger.Infof("prediction completed: %d model(s)", len(resp.Predictions))
	return resp, nil
}

// PredictXLSX runs one prediction call requesting the binary spreadsheet
// encoding and returns the raw XLSX bytes. Use SaveXLSX to persist them.
func (c *Client) PredictXLSX(ctx context.Context, req *PredictRequest) ([]byte, error) {
	start := time.Now()

	xreq := *req
	xreq.Output = prediction.OutputXLSX
	p, err := c.buildPayload(&xreq)
	if err != nil {
		c.observe(string(req.Module), "validation", start)
		return nil, err
	}

	c.logger.Infof("starting XLSX prediction: module=%s models=%s",
		req.Module, p.fields["models_list"])

	raw, err := c.send(ctx, p)
	if err != nil {
		c.observe(string(req.Module), outcomeOf(err), start)
		return nil, err
	}

	c.observe(string(req.Module), "ok", start)
	return raw.body, nil
}

// PredictSingle predicts properties for one SMILES string.
func (c *Client) PredictSingle(ctx context.Context, smiles string, module prediction.Module, models []string) (*prediction.PredictionResponse, error) {
	return c.Predict(ctx, &PredictRequest{
		Module: module,
		Models: models,
		Input:  SMILESInput(smiles),
	})
}

// PredictBatch predicts properties for a mapping of molecule ID → molecule.
// Result order within a model is not guaranteed to follow the mapping; use
// PredictionResponse.MoleculeResults to read results back by ID.
func (c *Client) PredictBatch(ctx context.Context, molecules map[string]prediction.Molecule, module prediction.Module, models []string) (*prediction.PredictionResponse, error) {
	return c.Predict(ctx, &PredictRequest{
		Module: module,
		Models: models,
		Input:  MoleculesInput(molecules),
	})
}

// PredictFromFile predicts properties for molecules in a local input file,
// uploaded as a multipart stream.
func (c *Client) PredictFromFile(ctx context.Context, path string, module prediction.Module, models []string) (*prediction.PredictionResponse, error) {
	return c.Predict(ctx, &PredictRequest{
		Module: module,
		Models: models,
		Input:  FileInput(path),
	})
}

// SaveXLSX writes spreadsheet bytes returned by PredictXLSX to path.
func SaveXLSX(data []byte, path string) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.File(fmt.Sprintf("failed to save XLSX file %q", path)).WithCause(err)
	}
	return nil
}

// outcomeOf maps an error onto its metrics outcome label.
func outcomeOf(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeAuthentication:
		return "auth"
	case errors.ErrCodeAPI:
		return "api"
	case errors.ErrCodeNetwork:
		return "network"
	case errors.ErrCodeTimeout:
		return "timeout"
	case errors.ErrCodeParse:
		return "parse"
	case errors.ErrCodeValidation:
		return "validation"
	case errors.ErrCodeFile:
		return "file"
	}
	return "error"
}
