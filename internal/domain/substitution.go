package domain

import "fmt"

// TargetKind says which part of a recipe a substitution rewrites.
type TargetKind string

// TargetKind values.
const (
	TargetIngredient TargetKind = "ingredient"
	TargetStep       TargetKind = "step"
)

// SubstitutionTarget addresses one ingredient (section, item index) or one step (section, step number).
type SubstitutionTarget struct {
	Kind       TargetKind `json:"kind"`
	Section    int        `json:"section"`
	Item       int        `json:"item,omitempty"`
	StepNumber int        `json:"step_number,omitempty"`
}

// IngredientTarget addresses the item-th ingredient of section.
func IngredientTarget(section, item int) SubstitutionTarget {
	return SubstitutionTarget{Kind: TargetIngredient, Section: section, Item: item}
}

// StepTarget addresses the step numbered number in section.
func StepTarget(section, number int) SubstitutionTarget {
	return SubstitutionTarget{Kind: TargetStep, Section: section, StepNumber: number}
}

// Resolves reports whether t addresses an existing ingredient or step of r.
func (t SubstitutionTarget) Resolves(r Recipe) bool {
	switch t.Kind {
	case TargetIngredient:
		if t.Section < 0 || t.Section >= len(r.IngredientSections) {
			return false
		}
		return t.Item >= 0 && t.Item < len(r.IngredientSections[t.Section].Items)
	case TargetStep:
		_, ok := r.FindStep(t.Section, t.StepNumber)
		return ok
	default:
		return false
	}
}

// Describe renders the targeted text of r, used when prompting a transformer.
func (t SubstitutionTarget) Describe(r Recipe) (string, error) {
	if !t.Resolves(r) {
		return "", ErrInvalidTarget
	}
	if t.Kind == TargetIngredient {
		item := r.IngredientSections[t.Section].Items[t.Item]
		if item.Amount == "" {
			return fmt.Sprintf("ingredient %q", item.Name), nil
		}
		return fmt.Sprintf("ingredient %q (%s)", item.Name, item.Amount), nil
	}
	idx, _ := r.FindStep(t.Section, t.StepNumber)
	return fmt.Sprintf("step %d: %q", t.StepNumber, r.StepSections[t.Section].Steps[idx].Instruction), nil
}

// ApplySubstitution merges the targeted ingredient or step of candidate onto base.
// Everything else, including identity and media, is taken from base. The merged item is marked modified.
// It reports false and returns base unchanged when either side lacks the target.
func ApplySubstitution(base, candidate Recipe, target SubstitutionTarget) (Recipe, bool) {
	if !target.Resolves(base) {
		return base, false
	}
	out := base.Clone()
	switch target.Kind {
	case TargetIngredient:
		if !target.Resolves(candidate) {
			return base, false
		}
		item := candidate.IngredientSections[target.Section].Items[target.Item]
		item.Modified = true
		out.IngredientSections[target.Section].Items[target.Item] = item
		return out, true
	case TargetStep:
		step, ok := findCandidateStep(candidate, target)
		if !ok {
			return base, false
		}
		idx, _ := base.FindStep(target.Section, target.StepNumber)
		orig := out.StepSections[target.Section].Steps[idx]
		orig.Instruction = step.Instruction
		orig.Modified = true
		out.StepSections[target.Section].Steps[idx] = orig
		return out, true
	default:
		return base, false
	}
}

// findCandidateStep looks the step up in its own section first, then in any section.
func findCandidateStep(candidate Recipe, target SubstitutionTarget) (Step, bool) {
	if idx, ok := candidate.FindStep(target.Section, target.StepNumber); ok {
		return candidate.StepSections[target.Section].Steps[idx], true
	}
	for section := range candidate.StepSections {
		if idx, ok := candidate.FindStep(section, target.StepNumber); ok {
			return candidate.StepSections[section].Steps[idx], true
		}
	}
	return Step{}, false
}
