// Package wizard drives multi-step forms. Progress lives in a session slot
// as {step: validated data} plus the current step; each step owns its form
// type and validation rules, and a submission for a step the user has not
// reached is rejected rather than guessed at.
package wizard

import (
	"net/url"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/notifyops/notify-admin/internal/platform/errors"
	"github.com/notifyops/notify-admin/internal/session"
)

// Step is one page of a wizard. NewForm returns a pointer to an empty form
// struct carrying form and validate tags.
type Step struct {
	Name    string
	NewForm func() any
}

// Wizard is an ordered list of steps sharing one session slot.
type Wizard struct {
	Name     string
	steps    []Step
	validate *validator.Validate
}

// New builds a wizard. Step order is submission order.
func New(name string, steps ...Step) *Wizard {
	return &Wizard{
		Name:     name,
		steps:    steps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// FirstStep is where a fresh visit lands.
func (w *Wizard) FirstStep() Step {
	return w.steps[0]
}

// Lookup resolves a step by name.
func (w *Wizard) Lookup(name string) (Step, error) {
	for _, step := range w.steps {
		if step.Name == name {
			return step, nil
		}
	}
	return Step{}, apperrors.WithMetadata(apperrors.CodeWizardUnknownStep, "unknown wizard step",
		map[string]string{"wizard": w.Name, "step": name})
}

func (w *Wizard) indexOf(name string) int {
	for i, step := range w.steps {
		if step.Name == name {
			return i
		}
	}
	return -1
}

// Current resolves the step the user should be shown. Abandoned sessions
// resume where they left off; fresh ones start at the first step.
func (w *Wizard) Current(state *session.WizardState) Step {
	if state == nil || state.CurrentStep == "" {
		return w.FirstStep()
	}
	if i := w.indexOf(state.CurrentStep); i >= 0 {
		return w.steps[i]
	}
	return w.FirstStep()
}

// Reachable reports whether the user may view the named step: any step up
// to and including the current one. Viewing an earlier step is back-nav.
func (w *Wizard) Reachable(state *session.WizardState, name string) bool {
	target := w.indexOf(name)
	if target < 0 {
		return false
	}
	return target <= w.indexOf(w.Current(state).Name)
}

// Submit validates values against the named step, commits the cleaned data
// to state, and advances. done reports that the last step was committed.
func (w *Wizard) Submit(state *session.WizardState, name string, values url.Values) (next Step, done bool, err error) {
	step, err := w.Lookup(name)
	if err != nil {
		return Step{}, false, err
	}
	if !w.Reachable(state, name) {
		return Step{}, false, apperrors.WithMetadata(apperrors.CodeWizardStepOutOfSeq, "step submitted out of sequence",
			map[string]string{"wizard": w.Name, "step": name})
	}

	form := step.NewForm()
	if err := decodeForm(form, values); err != nil {
		return Step{}, false, err
	}
	if err := w.validate.Struct(form); err != nil {
		return Step{}, false, fieldErrors(form, err)
	}

	if state.Steps == nil {
		state.Steps = make(map[string]map[string]any)
	}
	state.Steps[name] = formToMap(form)

	i := w.indexOf(name)
	if i == len(w.steps)-1 {
		state.CurrentStep = name
		return step, true, nil
	}
	next = w.steps[i+1]
	// Back-nav edits only advance up to where the user already was.
	if w.indexOf(next.Name) > w.indexOf(state.CurrentStep) {
		state.CurrentStep = next.Name
	}
	return next, false, nil
}

// StepData returns the committed data for a step, for rehydrating the form
// on back-nav. ok is false when the step was never submitted.
func (w *Wizard) StepData(state *session.WizardState, name string) (map[string]any, bool) {
	if state == nil || state.Steps == nil {
		return nil, false
	}
	data, ok := state.Steps[name]
	return data, ok
}

// Data flattens every committed step into one map. Later steps win on key
// collision, which the step forms avoid by construction.
func (w *Wizard) Data(state *session.WizardState) map[string]any {
	merged := make(map[string]any)
	if state == nil {
		return merged
	}
	for _, step := range w.steps {
		for key, value := range state.Steps[step.Name] {
			merged[key] = value
		}
	}
	return merged
}
