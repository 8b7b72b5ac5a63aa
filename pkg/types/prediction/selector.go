package prediction

import (
	"fmt"
	"strings"

	"github.com/protoqsar/protopred-go/pkg/errors"
)

// ModelSelector identifies one prediction model as a category:name pair,
// e.g. "model_phys:water_solubility".
type ModelSelector struct {
	Category string
	Name     string
}

// String renders the selector in wire form.
func (s ModelSelector) String() string {
	return s.Category + ":" + s.Name
}

// ParseSelector splits a "category:name" string into a ModelSelector.
// The parts it splits are trimmed; matching against the catalog is done
// later, case-insensitively. Exactly one separator is required.
func ParseSelector(raw string) (ModelSelector, error) {
	if !strings.Contains(raw, ":") {
		return ModelSelector{}, errors.Validation(
			fmt.Sprintf("invalid model format %q, expected 'category:name'", raw))
	}
	parts := strings.SplitN(raw, ":", 2)
	sel := ModelSelector{
		Category: strings.TrimSpace(parts[0]),
		Name:     strings.TrimSpace(parts[1]),
	}
	if sel.Category == "" || sel.Name == "" {
		return ModelSelector{}, errors.Validation(
			fmt.Sprintf("invalid model format %q, expected 'category:name'", raw))
	}
	return sel, nil
}

// normalizeName lowercases a model name and folds '-' into '_' so that the
// catalog's mixed spellings ("caco-2_permeability", "CYP450_1A2_inhibitor")
// match caller input regardless of case or dash style.
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// ValidateModels checks every selector against the module's catalog before
// any network call. It fails fast on the first invalid selector with a
// message naming the unrecognized part and the valid set. Pure function.
func ValidateModels(module Module, selectors []ModelSelector) error {
	if len(selectors) == 0 {
		return errors.Validation("models list must not be empty")
	}
	cats, ok := catalog[module]
	if !ok {
		return errors.Validation(fmt.Sprintf("unknown module %q", module))
	}

	for _, sel := range selectors {
		category := strings.ToLower(sel.Category)
		names, ok := cats[category]
		if !ok {
			return errors.Validation(fmt.Sprintf(
				"unknown model type %q for module %s (available: %s)",
				sel.Category, module, strings.Join(Categories(module), ", ")))
		}
		if !containsModel(names, sel.Name) {
			return errors.Validation(fmt.Sprintf(
				"unknown model %q for %s/%s (available: %s)",
				sel.Name, module, category, strings.Join(names, ", ")))
		}
	}
	return nil
}

func containsModel(names []string, name string) bool {
	want := normalizeName(name)
	for _, n := range names {
		if normalizeName(n) == want {
			return true
		}
	}
	return false
}

// ParseSelectors parses a slice of raw "category:name" strings.
func ParseSelectors(raw []string) ([]ModelSelector, error) {
	if len(raw) == 0 {
		return nil, errors.Validation("models list must not be empty")
	}
	out := make([]ModelSelector, 0, len(raw))
	for _, r := range raw {
		sel, err := ParseSelector(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// ParseSelectorList splits a caller-supplied comma-joined models string and
// parses each entry. Whitespace around entries is tolerated.
func ParseSelectorList(list string) ([]ModelSelector, error) {
	if strings.TrimSpace(list) == "" {
		return nil, errors.Validation("models list must not be empty")
	}
	return ParseSelectors(strings.Split(list, ","))
}

// JoinSelectors renders selectors as the comma-joined models_list wire
// field. Components assembled here are already trimmed by ParseSelector;
// no extra whitespace is introduced.
func JoinSelectors(selectors []ModelSelector) string {
	parts := make([]string, len(selectors))
	for i, s := range selectors {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
