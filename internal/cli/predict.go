package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/protoqsar/protopred-go/pkg/client"
	"github.com/protoqsar/protopred-go/pkg/types/prediction"
)

// predictOptions holds flags for the predict subcommand.
type predictOptions struct {
	Module    string
	Models    []string
	SMILES    string
	BatchFile string
	Upload    string
	XLSXOut   string
}

// newPredictCmd builds the predict subcommand. Exactly one input source is
// accepted: --smiles, --batch-file (a local JSON molecule mapping decoded
// and sent in the request body), or --upload (a file streamed as-is).
func newPredictCmd() *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run property predictions for one or more molecules",
		Example: `  protopred predict --module ProtoPHYSCHEM \
      --models model_phys:water_solubility --smiles "CCCCC"

  protopred predict --module ProtoADME \
      --models model_abs:skin_permeability --batch-file molecules.json

  protopred predict --module ProtoPHYSCHEM \
      --models model_phys:log_kow --smiles "CCO" --xlsx-out results.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Module, "module", "", "prediction module (ProtoPHYSCHEM, ProtoADME)")
	f.StringSliceVarP(&opts.Models, "models", "m", nil, "model selectors, category:name")
	f.StringVar(&opts.SMILES, "smiles", "", "single molecule as a SMILES string")
	f.StringVar(&opts.BatchFile, "batch-file", "", "JSON file mapping molecule IDs to molecules")
	f.StringVar(&opts.Upload, "upload", "", "input file to stream to the API unmodified")
	f.StringVar(&opts.XLSXOut, "xlsx-out", "", "write results as XLSX to this path instead of printing")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("models")

	return cmd
}

func runPredict(cmd *cobra.Command, opts *predictOptions) error {
	cliCtx, err := getCLIContext(cmd)
	if err != nil {
		return err
	}
	if cliCtx.Client == nil {
		return fmt.Errorf("API client not initialised")
	}

	input, err := resolveInput(opts)
	if err != nil {
		return err
	}

	req := &client.PredictRequest{
		Module: prediction.Module(opts.Module),
		Models: opts.Models,
		Input:  input,
	}

	if opts.XLSXOut != "" {
		data, err := cliCtx.Client.PredictXLSX(cmd.Context(), req)
		if err != nil {
			return err
		}
		if err := client.SaveXLSX(data, opts.XLSXOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "results written to %s\n", opts.XLSXOut)
		return nil
	}

	resp, err := cliCtx.Client.Predict(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printResponse(cmd, cliCtx.Output, resp)
}

// resolveInput maps the mutually-exclusive input flags onto the SDK's
// input union.
func resolveInput(opts *predictOptions) (client.PredictionInput, error) {
	set := 0
	for _, s := range []string{opts.SMILES, opts.BatchFile, opts.Upload} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return client.PredictionInput{}, fmt.Errorf("exactly one of --smiles, --batch-file, --upload is required")
	}

	switch {
	case opts.SMILES != "":
		return client.SMILESInput(opts.SMILES), nil
	case opts.BatchFile != "":
		molecules, err := readMoleculeFile(opts.BatchFile)
		if err != nil {
			return client.PredictionInput{}, err
		}
		return client.MoleculesInput(molecules), nil
	default:
		return client.FileInput(opts.Upload), nil
	}
}

// readMoleculeFile decodes a local JSON file mapping molecule IDs to
// molecule records.
func readMoleculeFile(path string) (map[string]prediction.Molecule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %q: %w", path, err)
	}
	var molecules map[string]prediction.Molecule
	if err := json.Unmarshal(data, &molecules); err != nil {
		return nil, fmt.Errorf("batch file %q is not a valid molecule mapping: %w", path, err)
	}
	return molecules, nil
}

// printResponse renders a normalized prediction response in the selected
// output format.
func printResponse(cmd *cobra.Command, format string, resp *prediction.PredictionResponse) error {
	if format == "json" {
		return printJSON(cmd, resp)
	}

	headers := []string{"MODEL", "ID", "SMILES", "PREDICTED", "NUMERICAL", "APPLICABILITY"}
	var rows [][]string
	for _, model := range resp.ModelNames() {
		for _, r := range resp.ModelResults(model) {
			rows = append(rows, []string{
				model,
				r.ID,
				r.SMILES,
				r.PredictedValue,
				strconv.FormatFloat(r.PredictedNumerical, 'g', -1, 64),
				r.ApplicabilityDomain,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})

	fmt.Fprint(cmd.OutOrStdout(), formatTable(headers, rows))
	return nil
}
