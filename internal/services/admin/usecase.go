package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/wizard"
)

// The go-live use case is collected across two steps. Answers live in the
// cache under the service, not in the session, so a teammate can pick the
// form up where another left it.
var useCaseSteps = []string{"about-service", "about-notifications"}

var useCaseFields = map[string][]templates.WizardField{
	"about-service": {
		{Name: "department_org_name", Label: "Name of your department or organisation"},
		{Name: "purpose", Label: "What will you use Notify for?"},
		{Name: "intended_recipients", Label: "Who will you send notifications to?"},
	},
	"about-notifications": {
		{Name: "notification_types", Label: "What types of notifications will you send?"},
		{Name: "expected_volume", Label: "How many notifications do you expect to send each month?"},
		{Name: "exact_daily_sms", Label: "Exact daily text messages", Type: "number"},
		{Name: "exact_daily_email", Label: "Exact daily emails", Type: "number"},
	},
}

func (s *Server) handleUseCasePage(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	saved, _ := s.api.UseCaseData(r.Context(), state.service.ID)

	step := r.URL.Query().Get("step")
	if !isUseCaseStep(step) {
		step = useCaseSteps[0]
	}
	s.renderUseCaseStep(w, r, step, saved)
}

func (s *Server) handleUseCase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	state := stateFromRequest(r)
	serviceID := state.service.ID

	step := r.PostFormValue("current_step")
	if step == "" {
		step = useCaseSteps[len(useCaseSteps)-1]
	}
	if !isUseCaseStep(step) {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}

	data, _ := s.api.UseCaseData(r.Context(), serviceID)
	if data == nil {
		data = map[string]any{}
	}
	for _, field := range useCaseFields[step] {
		raw := strings.TrimSpace(r.PostFormValue(field.Name))
		if raw == "" {
			continue
		}
		if field.Type == "number" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				s.renderUseCaseStep(w, r, step, data)
				return
			}
			data[field.Name] = n
		} else {
			data[field.Name] = raw
		}
	}

	// Writing the data always clears any earlier submission marker; only
	// completing the final step re-submits.
	if err := s.api.StoreUseCaseData(r.Context(), serviceID, data); err != nil {
		s.renderAPIError(w, r, err)
		return
	}

	if step != useCaseSteps[len(useCaseSteps)-1] {
		next := useCaseSteps[indexOfUseCaseStep(step)+1]
		http.Redirect(w, r, routepath.ServiceUseCase(serviceID)+"?step="+next, http.StatusFound)
		return
	}

	s.api.SetUseCaseSubmitted(r.Context(), serviceID)
	s.analytics.Track(r.Context(), "use_case_submitted", state.user.ID, map[string]any{"service_id": serviceID})
	s.flash(r, "info", "Thanks, we have your use case and will review it shortly")
	s.persistSession(r)
	http.Redirect(w, r, routepath.Service(serviceID), http.StatusFound)
}

func (s *Server) renderUseCaseStep(w http.ResponseWriter, r *http.Request, step string, saved map[string]any) {
	serviceID := stateFromRequest(r).service.ID
	fields := make([]templates.WizardField, len(useCaseFields[step]))
	copy(fields, useCaseFields[step])
	for i := range fields {
		switch v := saved[fields[i].Name].(type) {
		case string:
			fields[i].Value = v
		case int:
			fields[i].Value = strconv.Itoa(v)
		case float64:
			fields[i].Value = strconv.Itoa(int(v))
		}
	}
	s.render(w, r, templates.WizardStepPage(s.pageContext(r), templates.WizardStepView{
		Title:  "Tell us about how you plan to use Notify",
		Action: routepath.ServiceUseCase(serviceID),
		Step:   step,
		Fields: fields,
	}))
}

func isUseCaseStep(name string) bool { return indexOfUseCaseStep(name) >= 0 }

func indexOfUseCaseStep(name string) int {
	for i, step := range useCaseSteps {
		if step == name {
			return i
		}
	}
	return -1
}

// handleAcceptTerms records terms-of-use agreement for the go-live
// checklist. The flag lives in the cache with a long TTL rather than on
// the service record.
func (s *Server) handleAcceptTerms(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	s.api.SetTermsAccepted(r.Context(), state.service.ID)
	s.flash(r, "info", "You have accepted the terms of use")
	s.persistSession(r)
	http.Redirect(w, r, routepath.Service(state.service.ID), http.StatusFound)
}

const contactWizardName = "contact_form"

type contactReasonForm struct {
	SupportType string `form:"support_type" validate:"required,oneof=ask_question technical_support give_feedback"`
}

type contactMessageForm struct {
	Message string `form:"message" validate:"required,max=2000"`
}

func (s *Server) handleContactPage(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r).session.Wizard(contactWizardName)
	flow := s.contactWizard()
	step := flow.Current(state)
	if requested := r.URL.Query().Get("step"); requested != "" && flow.Reachable(state, requested) {
		step, _ = flow.Lookup(requested)
	}
	s.renderContactStep(w, r, step.Name, nil)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	state := stateFromRequest(r)
	flow := s.contactWizard()
	wizardState := state.session.Wizard(contactWizardName)
	stepName := r.PostFormValue("current_step")

	next, done, err := flow.Submit(wizardState, stepName, r.PostForm)
	if err != nil {
		var fieldErr *wizard.FieldErrors
		if errors.As(err, &fieldErr) {
			s.renderContactStep(w, r, stepName, fieldErr.Fields)
			return
		}
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	s.persistSession(r)

	contactPath := routepath.ServiceContact(state.service.ID)
	if !done {
		http.Redirect(w, r, contactPath+"?step="+next.Name, http.StatusFound)
		return
	}

	data := flow.Data(wizardState)
	s.analytics.Track(r.Context(), "contact_form_submitted", state.user.ID, map[string]any{
		"service_id":   state.service.ID,
		"support_type": data["support_type"],
	})
	state.session.ClearWizard(contactWizardName)
	s.flash(r, "info", "Thanks for getting in touch, we will reply within one working day")
	s.persistSession(r)
	http.Redirect(w, r, routepath.Service(state.service.ID), http.StatusFound)
}

func (s *Server) renderContactStep(w http.ResponseWriter, r *http.Request, stepName string, fieldErrors map[string][]string) {
	state := stateFromRequest(r)
	flow := s.contactWizard()
	saved, _ := flow.StepData(state.session.Wizard(contactWizardName), stepName)

	view := templates.WizardStepView{
		Action:      routepath.ServiceContact(state.service.ID),
		Step:        stepName,
		FieldErrors: fieldErrors,
	}
	switch stepName {
	case "choose_reason":
		view.Title = "What do you need help with?"
		view.Fields = []templates.WizardField{{
			Name:    "support_type",
			Label:   "Reason for contacting us",
			Value:   stringFromWizard(saved["support_type"]),
			Options: []string{"ask_question", "technical_support", "give_feedback"},
		}}
	case "write_message":
		view.Title = "Tell us more"
		view.Fields = []templates.WizardField{{
			Name:  "message",
			Label: "Your message",
			Value: stringFromWizard(saved["message"]),
		}}
	default:
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	s.render(w, r, templates.WizardStepPage(s.pageContext(r), view))
}

func (s *Server) contactWizard() *wizard.Wizard {
	return wizard.New(contactWizardName,
		wizard.Step{Name: "choose_reason", NewForm: func() any { return &contactReasonForm{} }},
		wizard.Step{Name: "write_message", NewForm: func() any { return &contactMessageForm{} }},
	)
}
