package model

import "time"

type Workshop struct {
	ID              string    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Status          string    `json:"status" db:"status"`
	StatusMessage   *string   `json:"status_message,omitempty" db:"status_message"`
	StartDate       time.Time `json:"start_date" db:"start_date"`
	EndDate         time.Time `json:"end_date" db:"end_date"`
	AllowedRegions  []string  `json:"allowed_regions" db:"allowed_regions"`
	AllowedServices []string  `json:"allowed_services" db:"allowed_services"`
	TemplateName    string    `json:"template_name" db:"template_name"`
	SurveyURL       *string   `json:"survey_url,omitempty" db:"survey_url"`
	CreatedBy       string    `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the workshop's end date lies strictly before the
// given day. Only active and failed workshops are eligible for cleanup.
func (w *Workshop) Expired(now time.Time) bool {
	if w.Status != StatusActive && w.Status != StatusFailed {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return w.EndDate.Before(today)
}
