package prediction

// catalog is the static model catalog published with API v2. Keys are
// module → model category → ordered model names, using the exact spellings
// the service documents. Loaded once at init and never mutated.
var catalog = map[Module]map[string][]string{
	ModuleProtoPHYSCHEM: {
		"model_phys": {
			"melting_point",
			"boiling_point",
			"vapour_pressure",
			"water_solubility",
			"log_kow",
			"log_d",
			"surface_tension",
		},
	},
	ModuleProtoADME: {
		"model_abs": {
			"bioavailability20",
			"bioavailability30",
			"caco-2_permeability",
			"p-gp_inhibitor",
			"p-gp_substrate",
			"skin_permeability",
			"human_intestinal_absorption",
		},
		"model_met": {
			"CYP450_1A2_inhibitor",
			"CYP450_1A2_substrate",
			"CYP450_2C19_inhibitor",
			"CYP450_2C19_substrate",
			"CYP450_2C9_inhibitor",
			"CYP450_2D6_inhibitor",
			"CYP450_2D6_substrate",
			"CYP450_3A4_inhibitor",
			"CYP450_3A4_substrate",
			"human_liver_microsomal",
		},
		"model_dist": {
			"blood-brain_barrier",
			"plasma-protein_binding",
			"volume_of_distribution",
		},
		"model_exc": {
			"half-life",
			"OATP1B1",
			"OATP1B3",
			"BSEP",
		},
	},
}

// categoryOrder fixes a stable listing order per module, since map iteration
// order would otherwise leak into CLI output and error messages.
var categoryOrder = map[Module][]string{
	ModuleProtoPHYSCHEM: {"model_phys"},
	ModuleProtoADME:     {"model_abs", "model_met", "model_dist", "model_exc"},
}

// Modules returns the modules the catalog knows about.
func Modules() []Module {
	return []Module{ModuleProtoPHYSCHEM, ModuleProtoADME}
}

// Categories returns the model categories of a module in catalog order.
// The returned slice is a copy.
func Categories(module Module) []string {
	order, ok := categoryOrder[module]
	if !ok {
		return nil
	}
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Models returns the model names of a category within a module, in catalog
// order. The returned slice is a copy; nil when the module or category is
// unknown.
func Models(module Module, category string) []string {
	cats, ok := catalog[module]
	if !ok {
		return nil
	}
	names, ok := cats[category]
	if !ok {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}
