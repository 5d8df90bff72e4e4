package admin

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/session"
	"github.com/notifyops/notify-admin/internal/wizard"
)

const addServiceWizardName = "add_service_form"

type addServiceLanguageForm struct {
	BrandingLanguage string `form:"default_branding_is_french" validate:"required,oneof=english french"`
}

type addServiceNameForm struct {
	Name      string `form:"name" validate:"required,max=255"`
	EmailFrom string `form:"email_from" validate:"required,max=64"`
}

type addServiceDetailsForm struct {
	OrganisationNotes string `form:"other_organisation_name"`
	MessageLimit      int    `form:"daily_message_limit" validate:"gte=1,lte=250000"`
}

func (s *Server) addServiceWizard() *wizard.Wizard {
	return wizard.New(addServiceWizardName,
		wizard.Step{Name: "choose_language", NewForm: func() any { return &addServiceLanguageForm{} }},
		wizard.Step{Name: "choose_name", NewForm: func() any { return &addServiceNameForm{} }},
		wizard.Step{Name: "choose_details", NewForm: func() any { return &addServiceDetailsForm{MessageLimit: 50} }},
	)
}

func (s *Server) handleAddServicePage(w http.ResponseWriter, r *http.Request) {
	flow := s.addServiceWizard()
	state := stateFromRequest(r).session.Wizard(addServiceWizardName)
	step := flow.Current(state)
	if requested := r.URL.Query().Get("step"); requested != "" && flow.Reachable(state, requested) {
		step, _ = flow.Lookup(requested)
	}
	s.renderAddServiceStep(w, r, flow, step.Name, nil)
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	flow := s.addServiceWizard()
	sess := stateFromRequest(r).session
	state := sess.Wizard(addServiceWizardName)
	stepName := r.PostFormValue("current_step")

	if stepName == "choose_name" {
		if !s.addServiceNamesAvailable(w, r, flow) {
			return
		}
	}

	next, done, err := flow.Submit(state, stepName, r.PostForm)
	if err != nil {
		var fieldErr *wizard.FieldErrors
		if errors.As(err, &fieldErr) {
			s.renderAddServiceStep(w, r, flow, stepName, fieldErr.Fields)
			return
		}
		s.renderError(w, r, http.StatusBadRequest)
		return
	}
	s.persistSession(r)

	if !done {
		http.Redirect(w, r, routepath.AddService+"?step="+next.Name, http.StatusFound)
		return
	}

	s.commitAddService(w, r, flow, state)
}

// addServiceNamesAvailable runs the two uniqueness checks before the name
// step commits. Each failure renders inline like a validation error.
func (s *Server) addServiceNamesAvailable(w http.ResponseWriter, r *http.Request, flow *wizard.Wizard) bool {
	name := r.PostFormValue("name")
	emailFrom := r.PostFormValue("email_from")
	fieldErrors := map[string][]string{}

	if name != "" {
		unique, err := s.api.IsServiceNameUnique(r.Context(), "", name)
		if err != nil {
			s.renderAPIError(w, r, err)
			return false
		}
		if !unique {
			fieldErrors["name"] = append(fieldErrors["name"], "This service name is already in use")
		}
	}
	if emailFrom != "" {
		unique, err := s.api.IsEmailFromUnique(r.Context(), "", emailFrom)
		if err != nil {
			s.renderAPIError(w, r, err)
			return false
		}
		if !unique {
			fieldErrors["email_from"] = append(fieldErrors["email_from"], "This email address is already in use")
		}
	}
	if len(fieldErrors) > 0 {
		s.renderAddServiceStep(w, r, flow, "choose_name", fieldErrors)
		return false
	}
	return true
}

// commitAddService creates the service and then its free SMS allowance, in
// that order. A failure on the second call leaves the service standing; the
// allowance is created lazily by another path on the next visit.
func (s *Server) commitAddService(w http.ResponseWriter, r *http.Request, flow *wizard.Wizard, state *session.WizardState) {
	sess := stateFromRequest(r).session
	data := flow.Data(state)

	name, _ := data["name"].(string)
	emailFrom, _ := data["email_from"].(string)
	brandingLanguage, _ := data["default_branding_is_french"].(string)
	messageLimit := intFromWizard(data["daily_message_limit"])
	if messageLimit <= 0 {
		messageLimit = 50
	}

	user := stateFromRequest(r).user
	serviceID, err := s.api.CreateService(r.Context(), notify.CreateServiceInput{
		Name:                    name,
		EmailFrom:               emailFrom,
		UserID:                  user.ID,
		MessageLimit:            messageLimit,
		Restricted:              true,
		DefaultBrandingIsFrench: brandingLanguage == "french",
		OrganisationNotes:       stringFromWizard(data["other_organisation_name"]),
	})
	if err != nil {
		var apiErr *notify.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			s.renderAddServiceStep(w, r, flow, "choose_name", apiErr.FieldErrors)
			return
		}
		s.renderAPIError(w, r, err)
		return
	}

	sess.ClearWizard(addServiceWizardName)
	s.persistSession(r)

	if err := s.api.CreateOrUpdateFreeSMSFragmentLimit(r.Context(), serviceID, messageLimit); err != nil {
		s.flash(r, "error", "Your service was created but its free text message allowance could not be set")
	}
	http.Redirect(w, r, routepath.Service(serviceID), http.StatusFound)
}

func (s *Server) renderAddServiceStep(w http.ResponseWriter, r *http.Request, flow *wizard.Wizard, stepName string, fieldErrors map[string][]string) {
	state := stateFromRequest(r).session.Wizard(addServiceWizardName)
	saved, _ := flow.StepData(state, stepName)

	view := templates.WizardStepView{
		Action:      routepath.AddService,
		Step:        stepName,
		FieldErrors: fieldErrors,
	}
	switch stepName {
	case "choose_language":
		view.Title = "Choose the language of your service"
		view.Fields = []templates.WizardField{{
			Name:    "default_branding_is_french",
			Label:   "Default branding language",
			Value:   stringFromWizard(saved["default_branding_is_french"]),
			Options: []string{"english", "french"},
		}}
	case "choose_name":
		view.Title = "Name your service"
		view.Fields = []templates.WizardField{
			{Name: "name", Label: "Service name", Value: stringFromWizard(saved["name"])},
			{Name: "email_from", Label: "Email address prefix", Value: stringFromWizard(saved["email_from"])},
		}
	case "choose_details":
		view.Title = "About your service"
		limit := intFromWizard(saved["daily_message_limit"])
		if limit <= 0 {
			limit = 50
		}
		view.Fields = []templates.WizardField{
			{Name: "other_organisation_name", Label: "Organisation name (if not listed)", Value: stringFromWizard(saved["other_organisation_name"])},
			{Name: "daily_message_limit", Label: "Daily message limit", Value: fmt.Sprintf("%d", limit), Type: "number"},
		}
	default:
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	s.render(w, r, templates.WizardStepPage(s.pageContext(r), view))
}

// Wizard data survives a session JSON round-trip, so numbers may come back
// as float64.
func intFromWizard(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringFromWizard(value any) string {
	s, _ := value.(string)
	return s
}
