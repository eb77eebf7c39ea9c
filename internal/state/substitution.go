package state

import (
	"strings"

	"github.com/hylla/famboard/internal/domain"
)

// SubstitutionPhase is the state of the substitution workflow.
type SubstitutionPhase string

// SubstitutionPhase values.
const (
	PhaseClosed     SubstitutionPhase = "closed"
	PhaseInput      SubstitutionPhase = "input"
	PhaseProcessing SubstitutionPhase = "processing"
	PhasePreview    SubstitutionPhase = "preview"
)

// Substitution is the proposal, preview, approve-or-reject workflow for one ingredient or step.
// Snapshot is the recipe at open time; Preview is present only in PhasePreview.
type Substitution struct {
	Phase    SubstitutionPhase         `json:"phase"`
	Target   domain.SubstitutionTarget `json:"target"`
	Snapshot *domain.Recipe            `json:"snapshot,omitempty"`
	Preview  *domain.Recipe            `json:"preview,omitempty"`
	Prompt   string                    `json:"prompt,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// IsOpen reports whether the workflow is past closed.
func (s Substitution) IsOpen() bool {
	switch s.Phase {
	case PhaseInput, PhaseProcessing, PhasePreview:
		return true
	default:
		return false
	}
}

// OpenSubstitution starts a substitution for Target on the current recipe.
type OpenSubstitution struct {
	Target domain.SubstitutionTarget `json:"target"`
}

// SubmitSubstitution sends Prompt to the transformer.
type SubmitSubstitution struct {
	Prompt string `json:"prompt"`
}

// SubstitutionPreviewReady delivers the transformed candidate recipe.
type SubstitutionPreviewReady struct {
	Candidate domain.Recipe `json:"candidate"`
}

// SubstitutionFailed reports a failed transform.
type SubstitutionFailed struct {
	Failure domain.Failure `json:"failure"`
}

// ApproveSubstitution merges the previewed change into the current recipe.
type ApproveSubstitution struct{}

// RejectSubstitution discards the preview and returns to input.
type RejectSubstitution struct{}

// RequestAdditionalSubstitution discards the preview and submits a follow-up prompt.
type RequestAdditionalSubstitution struct {
	Prompt string `json:"prompt"`
}

// CloseSubstitution abandons the workflow.
type CloseSubstitution struct{}

func (OpenSubstitution) IntentName() string              { return "substitution.open" }
func (SubmitSubstitution) IntentName() string            { return "substitution.submit" }
func (SubstitutionPreviewReady) IntentName() string      { return "substitution.preview_ready" }
func (SubstitutionFailed) IntentName() string            { return "substitution.failed" }
func (ApproveSubstitution) IntentName() string           { return "substitution.approve" }
func (RejectSubstitution) IntentName() string            { return "substitution.reject" }
func (RequestAdditionalSubstitution) IntentName() string { return "substitution.request_additional" }
func (CloseSubstitution) IntentName() string             { return "substitution.close" }

func (OpenSubstitution) recipeIntent()              {}
func (SubmitSubstitution) recipeIntent()            {}
func (SubstitutionPreviewReady) recipeIntent()      {}
func (SubstitutionFailed) recipeIntent()            {}
func (ApproveSubstitution) recipeIntent()           {}
func (RejectSubstitution) recipeIntent()            {}
func (RequestAdditionalSubstitution) recipeIntent() {}
func (CloseSubstitution) recipeIntent()             {}

// substitutionIntent narrows recipe intents to the workflow ones.
type substitutionIntent interface {
	RecipeIntent
	substitution()
}

func (OpenSubstitution) substitution()              {}
func (SubmitSubstitution) substitution()            {}
func (SubstitutionPreviewReady) substitution()      {}
func (SubstitutionFailed) substitution()            {}
func (ApproveSubstitution) substitution()           {}
func (RejectSubstitution) substitution()            {}
func (RequestAdditionalSubstitution) substitution() {}
func (CloseSubstitution) substitution()             {}

func (i SubstitutionFailed) failure() domain.Failure { return i.Failure }

func reduceSubstitution(s RecipeState, intent substitutionIntent) RecipeState {
	sub := s.Substitution
	switch i := intent.(type) {
	case OpenSubstitution:
		if sub.IsOpen() || s.Current == nil || !i.Target.Resolves(*s.Current) {
			return s
		}
		s.Substitution = Substitution{
			Phase:    PhaseInput,
			Target:   i.Target,
			Snapshot: cloneRecipe(*s.Current),
		}
		return s
	case SubmitSubstitution:
		prompt := strings.TrimSpace(i.Prompt)
		if sub.Phase != PhaseInput || prompt == "" {
			return s
		}
		sub.Phase = PhaseProcessing
		sub.Prompt = prompt
		sub.Error = ""
		s.Substitution = sub
		return s
	case SubstitutionPreviewReady:
		if sub.Phase != PhaseProcessing {
			return s
		}
		sub.Phase = PhasePreview
		sub.Preview = cloneRecipe(i.Candidate)
		s.Substitution = sub
		return s
	case SubstitutionFailed:
		if sub.Phase != PhaseProcessing {
			return s
		}
		sub.Phase = PhaseInput
		sub.Error = i.Failure.Message
		s.Substitution = sub
		return s
	case ApproveSubstitution:
		if !sub.IsOpen() {
			return s
		}
		if sub.Phase == PhasePreview && sub.Preview != nil {
			base := sub.Snapshot
			if s.Current != nil {
				base = s.Current
			}
			if base != nil {
				if merged, ok := domain.ApplySubstitution(*base, *sub.Preview, sub.Target); ok {
					s.Current = &merged
				}
			}
		}
		s.Substitution = Substitution{Phase: PhaseClosed}
		return s
	case RejectSubstitution:
		if sub.Phase != PhasePreview {
			return s
		}
		sub.Phase = PhaseInput
		sub.Preview = nil
		s.Substitution = sub
		return s
	case RequestAdditionalSubstitution:
		prompt := strings.TrimSpace(i.Prompt)
		if sub.Phase != PhasePreview || prompt == "" {
			return s
		}
		sub.Phase = PhaseProcessing
		sub.Preview = nil
		sub.Prompt = prompt
		sub.Error = ""
		s.Substitution = sub
		return s
	case CloseSubstitution:
		s.Substitution = Substitution{Phase: PhaseClosed}
		return s
	}
	return s
}
