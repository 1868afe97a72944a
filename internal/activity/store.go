package activity

import (
	"context"
	"fmt"

	"github.com/trainops/workshop-portal/internal/metrics"
	"github.com/trainops/workshop-portal/internal/model"
)

// Store contains activities that read from and update the portal database.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// WorkshopContext bundles everything the provisioning workflow needs to know
// about a workshop in one read.
type WorkshopContext struct {
	Workshop     model.Workshop      `json:"workshop"`
	Participants []model.Participant `json:"participants"`
}

func (a *Store) GetWorkshopContext(ctx context.Context, workshopID string) (*WorkshopContext, error) {
	var w model.Workshop
	err := a.db.QueryRow(ctx,
		`SELECT id, name, description, status, status_message, start_date, end_date, allowed_regions, allowed_services, template_name, survey_url, created_by, created_at, updated_at
		 FROM workshops WHERE id = $1`, workshopID,
	).Scan(&w.ID, &w.Name, &w.Description, &w.Status, &w.StatusMessage, &w.StartDate, &w.EndDate,
		&w.AllowedRegions, &w.AllowedServices, &w.TemplateName, &w.SurveyURL, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get workshop %s: %w", workshopID, err)
	}

	rows, err := a.db.Query(ctx,
		`SELECT id, workshop_id, alias, email, upn, object_id, subscription_id, resource_group, subscription_valid, status, status_message, created_at, updated_at
		 FROM participants WHERE workshop_id = $1 ORDER BY alias`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := &WorkshopContext{Workshop: w}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.WorkshopID, &p.Alias, &p.Email, &p.UPN, &p.ObjectID,
			&p.SubscriptionID, &p.ResourceGroup, &p.SubscriptionValid, &p.Status, &p.StatusMessage,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out.Participants = append(out.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

type UpdateWorkshopStatusParams struct {
	WorkshopID string `json:"workshop_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (a *Store) UpdateWorkshopStatus(ctx context.Context, params UpdateWorkshopStatusParams) error {
	var current string
	err := a.db.QueryRow(ctx,
		"SELECT status FROM workshops WHERE id = $1", params.WorkshopID,
	).Scan(&current)
	if err != nil {
		return fmt.Errorf("get workshop %s status: %w", params.WorkshopID, err)
	}
	if !model.CanTransition(current, params.Status) {
		return fmt.Errorf("workshop %s: status %s cannot move to %s", params.WorkshopID, current, params.Status)
	}

	var msg *string
	if params.Message != "" {
		msg = &params.Message
	}
	_, err = a.db.Exec(ctx,
		"UPDATE workshops SET status = $1, status_message = $2, updated_at = now() WHERE id = $3",
		params.Status, msg, params.WorkshopID,
	)
	if err != nil {
		return fmt.Errorf("update workshop %s status: %w", params.WorkshopID, err)
	}
	return nil
}

type UpdateParticipantStatusParams struct {
	ParticipantID string `json:"participant_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

func (a *Store) UpdateParticipantStatus(ctx context.Context, params UpdateParticipantStatusParams) error {
	var msg *string
	if params.Message != "" {
		msg = &params.Message
	}
	_, err := a.db.Exec(ctx,
		"UPDATE participants SET status = $1, status_message = $2, updated_at = now() WHERE id = $3",
		params.Status, msg, params.ParticipantID,
	)
	if err != nil {
		return fmt.Errorf("update participant %s status: %w", params.ParticipantID, err)
	}
	return nil
}

// MarkParticipantFailed records a provisioning failure on the participant
// row. Identity or resource fields already set stay set, so a later delete
// still knows what to tear down.
func (a *Store) MarkParticipantFailed(ctx context.Context, params UpdateParticipantStatusParams) error {
	if err := a.UpdateParticipantStatus(ctx, UpdateParticipantStatusParams{
		ParticipantID: params.ParticipantID,
		Status:        model.StatusFailed,
		Message:       params.Message,
	}); err != nil {
		return err
	}
	metrics.ParticipantsProvisioned.WithLabelValues("failed").Inc()
	return nil
}

// MarkParticipantActive settles a fully provisioned participant.
func (a *Store) MarkParticipantActive(ctx context.Context, participantID string) error {
	if err := a.UpdateParticipantStatus(ctx, UpdateParticipantStatusParams{
		ParticipantID: participantID,
		Status:        model.StatusActive,
	}); err != nil {
		return err
	}
	metrics.ParticipantsProvisioned.WithLabelValues("succeeded").Inc()
	return nil
}

type SetParticipantIdentityParams struct {
	ParticipantID string `json:"participant_id"`
	UPN           string `json:"upn"`
	ObjectID      string `json:"object_id"`
}

func (a *Store) SetParticipantIdentity(ctx context.Context, params SetParticipantIdentityParams) error {
	_, err := a.db.Exec(ctx,
		"UPDATE participants SET upn = $1, object_id = $2, updated_at = now() WHERE id = $3",
		params.UPN, params.ObjectID, params.ParticipantID,
	)
	if err != nil {
		return fmt.Errorf("set participant %s identity: %w", params.ParticipantID, err)
	}
	return nil
}

type SetParticipantResourceGroupParams struct {
	ParticipantID string `json:"participant_id"`
	ResourceGroup string `json:"resource_group"`
}

func (a *Store) SetParticipantResourceGroup(ctx context.Context, params SetParticipantResourceGroupParams) error {
	_, err := a.db.Exec(ctx,
		"UPDATE participants SET resource_group = $1, updated_at = now() WHERE id = $2",
		params.ResourceGroup, params.ParticipantID,
	)
	if err != nil {
		return fmt.Errorf("set participant %s resource group: %w", params.ParticipantID, err)
	}
	return nil
}

type ClearParticipantResourceParams struct {
	ParticipantID string `json:"participant_id"`
	ResourceType  string `json:"resource_type"`
}

// ClearParticipantResource empties the identity or resource fields after the
// corresponding Azure resource is confirmed gone.
func (a *Store) ClearParticipantResource(ctx context.Context, params ClearParticipantResourceParams) error {
	var query string
	switch params.ResourceType {
	case model.ResourceTypeEntraUser:
		query = "UPDATE participants SET upn = '', object_id = '', updated_at = now() WHERE id = $1"
	case model.ResourceTypeResourceGroup:
		query = "UPDATE participants SET resource_group = '', updated_at = now() WHERE id = $1"
	default:
		return fmt.Errorf("unknown resource type %q", params.ResourceType)
	}
	if _, err := a.db.Exec(ctx, query, params.ParticipantID); err != nil {
		return fmt.Errorf("clear participant %s %s: %w", params.ParticipantID, params.ResourceType, err)
	}
	return nil
}

type ClearResourceByNameParams struct {
	WorkshopID   string `json:"workshop_id"`
	ResourceType string `json:"resource_type"`
	ResourceName string `json:"resource_name"`
}

// ClearResourceByName empties the matching participant fields when only the
// resource identity is known, as in a deletion retry driven by a ledger
// entry. Matching zero rows is fine: the participant row may already be
// cleared or gone.
func (a *Store) ClearResourceByName(ctx context.Context, params ClearResourceByNameParams) error {
	var query string
	switch params.ResourceType {
	case model.ResourceTypeEntraUser:
		query = "UPDATE participants SET upn = '', object_id = '', updated_at = now() WHERE workshop_id = $1 AND upn = $2"
	case model.ResourceTypeResourceGroup:
		query = "UPDATE participants SET resource_group = '', updated_at = now() WHERE workshop_id = $1 AND resource_group = $2"
	default:
		return fmt.Errorf("unknown resource type %q", params.ResourceType)
	}
	if _, err := a.db.Exec(ctx, query, params.WorkshopID, params.ResourceName); err != nil {
		return fmt.Errorf("clear %s %s: %w", params.ResourceType, params.ResourceName, err)
	}
	return nil
}

type SaveWorkshopCredentialsParams struct {
	WorkshopID string `json:"workshop_id"`
	CSV        string `json:"csv"`
}

// SaveWorkshopCredentials stores the one-time credentials artifact. A second
// provisioning run for the same workshop appends its rows to the existing
// artifact if it has not been collected yet.
func (a *Store) SaveWorkshopCredentials(ctx context.Context, params SaveWorkshopCredentialsParams) error {
	_, err := a.db.Exec(ctx,
		`INSERT INTO workshop_credentials (workshop_id, csv, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (workshop_id) DO UPDATE SET csv = workshop_credentials.csv || $3, created_at = now()`,
		params.WorkshopID, params.CSV, csvBody(params.CSV),
	)
	if err != nil {
		return fmt.Errorf("save credentials for workshop %s: %w", params.WorkshopID, err)
	}
	return nil
}

// csvBody strips the header line so appended artifacts carry it only once.
func csvBody(csv string) string {
	for i := 0; i < len(csv); i++ {
		if csv[i] == '\n' {
			return csv[i+1:]
		}
	}
	return ""
}

// FinalizeWorkshopDeletion settles a fully torn down workshop: the row goes
// to deleted, remaining participant rows follow, and an uncollected
// credentials artifact is discarded.
func (a *Store) FinalizeWorkshopDeletion(ctx context.Context, workshopID string) error {
	_, err := a.db.Exec(ctx,
		"UPDATE workshops SET status = $1, status_message = NULL, updated_at = now() WHERE id = $2",
		model.StatusDeleted, workshopID,
	)
	if err != nil {
		return fmt.Errorf("finalize workshop %s: %w", workshopID, err)
	}
	_, err = a.db.Exec(ctx,
		"UPDATE participants SET status = $1, updated_at = now() WHERE workshop_id = $2",
		model.StatusDeleted, workshopID,
	)
	if err != nil {
		return fmt.Errorf("finalize participants for workshop %s: %w", workshopID, err)
	}
	if _, err := a.db.Exec(ctx,
		"DELETE FROM workshop_credentials WHERE workshop_id = $1", workshopID,
	); err != nil {
		return fmt.Errorf("discard credentials for workshop %s: %w", workshopID, err)
	}
	metrics.WorkshopsDeleted.Inc()
	return nil
}

// ListExpiredWorkshops returns workshops whose end date has passed and that
// still hold provisioned resources. Failed workshops are included: a
// partially provisioned workshop still costs money.
func (a *Store) ListExpiredWorkshops(ctx context.Context) ([]string, error) {
	rows, err := a.db.Query(ctx,
		`SELECT id FROM workshops
		 WHERE status IN ('active', 'failed') AND end_date < (now() AT TIME ZONE 'utc')::date
		 ORDER BY end_date`)
	if err != nil {
		return nil, fmt.Errorf("list expired workshops: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired workshop: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired workshops: %w", err)
	}
	return ids, nil
}

func (a *Store) GetTemplate(ctx context.Context, name string) (*model.Template, error) {
	var t model.Template
	err := a.db.QueryRow(ctx,
		"SELECT name, description, kind, content, updated_at FROM templates WHERE name = $1", name,
	).Scan(&t.Name, &t.Description, &t.Kind, &t.Content, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", name, err)
	}
	return &t, nil
}
