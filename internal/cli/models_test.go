package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runModels executes the models subcommand through the full root command,
// including persistentPreRun. It must work with no credentials configured.
func runModels(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("PROTOPRED_ACCOUNT_TOKEN", "")
	t.Setenv("PROTOPRED_ACCOUNT_SECRET_KEY", "")
	t.Setenv("PROTOPRED_ACCOUNT_USER", "")

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"models"}, args...))
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestModelsCmd_ListsCatalog(t *testing.T) {
	out := runModels(t)
	assert.Contains(t, out, "ProtoPHYSCHEM")
	assert.Contains(t, out, "ProtoADME")
	assert.Contains(t, out, "water_solubility")
	assert.Contains(t, out, "model_exc")
}

func TestModelsCmd_ModuleFilter(t *testing.T) {
	out := runModels(t, "--module", "ProtoPHYSCHEM")
	assert.Contains(t, out, "water_solubility")
	assert.NotContains(t, out, "ProtoADME")
}

func TestModelsCmd_UnknownModule(t *testing.T) {
	t.Setenv("PROTOPRED_ACCOUNT_TOKEN", "")
	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"models", "--module", "ProtoTOX"})
	assert.Error(t, cmd.Execute())
}

func TestModelsCmd_JSON(t *testing.T) {
	out := runModels(t, "-o", "json")

	var listing map[string]map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.Contains(t, listing["ProtoPHYSCHEM"]["model_phys"], "water_solubility")
	assert.Contains(t, listing["ProtoADME"]["model_abs"], "skin_permeability")
}
