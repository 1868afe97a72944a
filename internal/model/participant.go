package model

import "time"

// Participant is one attendee's provisioned footprint inside a workshop:
// a directory account plus a resource group in an assigned subscription.
// Identity and resource fields stay empty until the corresponding
// provisioning step has succeeded.
type Participant struct {
	ID                string    `json:"id" db:"id"`
	WorkshopID        string    `json:"workshop_id" db:"workshop_id"`
	Alias             string    `json:"alias" db:"alias"`
	Email             string    `json:"email" db:"email"`
	UPN               string    `json:"upn" db:"upn"`
	ObjectID          string    `json:"object_id" db:"object_id"`
	SubscriptionID    string    `json:"subscription_id" db:"subscription_id"`
	ResourceGroup     string    `json:"resource_group" db:"resource_group"`
	SubscriptionValid bool      `json:"subscription_valid" db:"subscription_valid"`
	Status            string    `json:"status" db:"status"`
	StatusMessage     *string   `json:"status_message,omitempty" db:"status_message"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Provisioned reports whether both the identity and resource steps completed.
func (p *Participant) Provisioned() bool {
	return p.UPN != "" && p.ResourceGroup != ""
}

// ParticipantCredential is the plaintext login material produced as a
// byproduct of account creation. It is never stored on the participant row;
// it only exists in the one-time credentials artifact.
type ParticipantCredential struct {
	Alias          string `json:"alias"`
	Email          string `json:"email"`
	UPN            string `json:"upn"`
	Password       string `json:"password"`
	SubscriptionID string `json:"subscription_id"`
	ResourceGroup  string `json:"resource_group"`
}
