package request

import "time"

// CreateParticipant is one attendee entry in a workshop create or
// add-participants request.
type CreateParticipant struct {
	Alias string `json:"alias" validate:"required,alias"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateWorkshop is the request body for creating a workshop.
type CreateWorkshop struct {
	Name            string              `json:"name" validate:"required,min=1,max=120"`
	Description     string              `json:"description" validate:"max=2000"`
	StartDate       time.Time           `json:"start_date" validate:"required"`
	EndDate         time.Time           `json:"end_date" validate:"required,gtefield=StartDate"`
	AllowedRegions  []string            `json:"allowed_regions"`
	AllowedServices []string            `json:"allowed_services"`
	TemplateName    string              `json:"template_name"`
	SurveyURL       *string             `json:"survey_url" validate:"omitempty,url"`
	CreatedBy       string              `json:"created_by" validate:"required,email"`
	Participants    []CreateParticipant `json:"participants" validate:"required,min=1,max=200,dive"`
}

// UpdateWorkshop is the request body for updating a workshop. Fields other
// than the end date and survey URL only take effect on draft workshops.
type UpdateWorkshop struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=120"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	AllowedRegions  []string   `json:"allowed_regions"`
	AllowedServices []string   `json:"allowed_services"`
	TemplateName    *string    `json:"template_name"`
	SurveyURL       *string    `json:"survey_url" validate:"omitempty,url"`
}

// AddParticipants is the request body for appending attendees to an
// existing workshop.
type AddParticipants struct {
	Participants []CreateParticipant `json:"participants" validate:"required,min=1,max=200,dive"`
}

// ReassignSubscription is the request body for moving a participant to a
// different subscription.
type ReassignSubscription struct {
	SubscriptionID string `json:"subscription_id" validate:"required,uuid"`
}
