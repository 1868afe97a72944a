package model

import "time"

// Infrastructure template kinds. ARM templates are JSON documents; Bicep
// templates are plain text compiled out-of-band.
const (
	TemplateKindARM   = "arm"
	TemplateKindBicep = "bicep"
)

type Template struct {
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Kind        string    `json:"kind" db:"kind"`
	Content     string    `json:"content" db:"content"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
