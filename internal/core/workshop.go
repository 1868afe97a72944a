package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/trainops/workshop-portal/internal/api/request"
	"github.com/trainops/workshop-portal/internal/model"
	"github.com/trainops/workshop-portal/internal/platform"
)

type WorkshopService struct {
	db DB
	tc temporalclient.Client
}

func NewWorkshopService(db DB, tc temporalclient.Client) *WorkshopService {
	return &WorkshopService{db: db, tc: tc}
}

// ErrTemplateNotFound marks a reference to a template that does not exist.
var ErrTemplateNotFound = errors.New("template not found")

func (s *WorkshopService) templateExists(ctx context.Context, name string) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM templates WHERE name = $1)", name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check template %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("template %s: %w", name, ErrTemplateNotFound)
	}
	return nil
}

// Create inserts the workshop and its participant rows, then kicks off
// provisioning through the per-workshop workflow. Participants start in
// status pending; the workflow moves each one forward independently.
func (s *WorkshopService) Create(ctx context.Context, workshop *model.Workshop, participants []model.Participant) error {
	// A dangling template reference must fail here, not later inside the
	// provisioning workflow.
	if workshop.TemplateName != "" {
		if err := s.templateExists(ctx, workshop.TemplateName); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO workshops (id, name, description, status, start_date, end_date, allowed_regions, allowed_services, template_name, survey_url, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
		workshop.ID, workshop.Name, workshop.Description, model.StatusProvisioning,
		workshop.StartDate, workshop.EndDate, workshop.AllowedRegions, workshop.AllowedServices,
		workshop.TemplateName, workshop.SurveyURL, workshop.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert workshop: %w", err)
	}

	for i := range participants {
		p := &participants[i]
		p.Alias = platform.NormalizeAlias(p.Alias)
		_, err := s.db.Exec(ctx,
			`INSERT INTO participants (id, workshop_id, alias, email, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now())`,
			p.ID, workshop.ID, p.Alias, p.Email, model.StatusPending,
		)
		if err != nil {
			return fmt.Errorf("insert participant %s: %w", p.Alias, err)
		}
	}

	if err := signalProvision(ctx, s.tc, workshop.ID, model.ProvisionTask{
		WorkflowName: "CreateWorkshopWorkflow",
		WorkflowID:   fmt.Sprintf("create-workshop-%s", workshop.ID),
		Arg:          workshop.ID,
	}); err != nil {
		return fmt.Errorf("start CreateWorkshopWorkflow: %w", err)
	}

	return nil
}

func (s *WorkshopService) GetByID(ctx context.Context, id string) (*model.Workshop, error) {
	var w model.Workshop
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, status, status_message, start_date, end_date, allowed_regions, allowed_services, template_name, survey_url, created_by, created_at, updated_at
		 FROM workshops WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Description, &w.Status, &w.StatusMessage, &w.StartDate, &w.EndDate,
		&w.AllowedRegions, &w.AllowedServices, &w.TemplateName, &w.SurveyURL, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get workshop %s: %w", id, err)
	}
	return &w, nil
}

func (s *WorkshopService) List(ctx context.Context, params request.ListParams) ([]model.Workshop, bool, error) {
	query := `SELECT id, name, description, status, status_message, start_date, end_date, allowed_regions, allowed_services, template_name, survey_url, created_by, created_at, updated_at FROM workshops WHERE status != 'deleted'`
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}

	sortCol := "created_at"
	switch params.Sort {
	case "status":
		sortCol = "status"
	case "start_date":
		sortCol = "start_date"
	case "end_date":
		sortCol = "end_date"
	}
	order := "DESC"
	if params.Order == "asc" {
		order = "ASC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, sortCol, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list workshops: %w", err)
	}
	defer rows.Close()

	var workshops []model.Workshop
	for rows.Next() {
		var w model.Workshop
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Status, &w.StatusMessage, &w.StartDate, &w.EndDate,
			&w.AllowedRegions, &w.AllowedServices, &w.TemplateName, &w.SurveyURL, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan workshop: %w", err)
		}
		workshops = append(workshops, w)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate workshops: %w", err)
	}

	hasMore := len(workshops) > params.Limit
	if hasMore {
		workshops = workshops[:params.Limit]
	}
	return workshops, hasMore, nil
}

func (s *WorkshopService) Participants(ctx context.Context, workshopID string) ([]model.Participant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workshop_id, alias, email, upn, object_id, subscription_id, resource_group, subscription_valid, status, status_message, created_at, updated_at
		 FROM participants WHERE workshop_id = $1 ORDER BY alias`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list participants for workshop %s: %w", workshopID, err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.WorkshopID, &p.Alias, &p.Email, &p.UPN, &p.ObjectID,
			&p.SubscriptionID, &p.ResourceGroup, &p.SubscriptionValid, &p.Status, &p.StatusMessage,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

// Update edits workshop metadata. Only draft workshops accept changes to
// everything; for others only the end date and survey URL may move, since
// the rest is already baked into provisioned resources.
func (s *WorkshopService) Update(ctx context.Context, workshop *model.Workshop) error {
	current, err := s.GetByID(ctx, workshop.ID)
	if err != nil {
		return err
	}

	if workshop.TemplateName != "" && workshop.TemplateName != current.TemplateName {
		if err := s.templateExists(ctx, workshop.TemplateName); err != nil {
			return err
		}
	}

	if current.Status == model.StatusDraft {
		_, err = s.db.Exec(ctx,
			`UPDATE workshops SET name = $1, description = $2, start_date = $3, end_date = $4, allowed_regions = $5, allowed_services = $6, template_name = $7, survey_url = $8, updated_at = now()
			 WHERE id = $9`,
			workshop.Name, workshop.Description, workshop.StartDate, workshop.EndDate,
			workshop.AllowedRegions, workshop.AllowedServices, workshop.TemplateName, workshop.SurveyURL, workshop.ID,
		)
	} else {
		_, err = s.db.Exec(ctx,
			`UPDATE workshops SET end_date = $1, survey_url = $2, updated_at = now() WHERE id = $3`,
			workshop.EndDate, workshop.SurveyURL, workshop.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("update workshop %s: %w", workshop.ID, err)
	}
	return nil
}

// AddParticipants appends pending participant rows to an existing workshop
// and re-signals provisioning. The provisioning workflow only touches
// pending rows, so already provisioned participants are untouched.
func (s *WorkshopService) AddParticipants(ctx context.Context, workshopID string, participants []model.Participant) error {
	workshop, err := s.GetByID(ctx, workshopID)
	if err != nil {
		return err
	}
	if workshop.Status == model.StatusDeleting || workshop.Status == model.StatusDeleted {
		return fmt.Errorf("workshop %s is %s", workshopID, workshop.Status)
	}

	for i := range participants {
		p := &participants[i]
		p.Alias = platform.NormalizeAlias(p.Alias)
		_, err := s.db.Exec(ctx,
			`INSERT INTO participants (id, workshop_id, alias, email, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now())`,
			p.ID, workshopID, p.Alias, p.Email, model.StatusPending,
		)
		if err != nil {
			return fmt.Errorf("insert participant %s: %w", p.Alias, err)
		}
	}

	if err := signalProvision(ctx, s.tc, workshopID, model.ProvisionTask{
		WorkflowName: "CreateWorkshopWorkflow",
		WorkflowID:   fmt.Sprintf("create-workshop-%s", workshopID),
		Arg:          workshopID,
	}); err != nil {
		return fmt.Errorf("start CreateWorkshopWorkflow: %w", err)
	}
	return nil
}

// ErrReassignRejected marks a reassignment the eligibility rules refuse.
var ErrReassignRejected = errors.New("reassignment rejected")

// ReassignParticipant points a participant at an explicitly chosen
// subscription and clears the invalid flag. The target must be discovered
// and currently eligible (deny overrides allow; an empty allow list admits
// every non-denied subscription). Metadata only: resources are not migrated
// across subscriptions, that remains a manual follow-up.
func (s *WorkshopService) ReassignParticipant(ctx context.Context, workshopID, alias, subscriptionID string) error {
	var current string
	err := s.db.QueryRow(ctx,
		`SELECT subscription_id FROM participants WHERE workshop_id = $1 AND alias = $2`,
		workshopID, alias,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("participant %s not found in workshop %s", alias, workshopID)
	}
	if err != nil {
		return fmt.Errorf("get participant %s: %w", alias, err)
	}
	if current == subscriptionID {
		return fmt.Errorf("participant %s is already assigned to subscription %s: %w", alias, subscriptionID, ErrReassignRejected)
	}

	var allowList, denyList []string
	err = s.db.QueryRow(ctx,
		"SELECT allow_list, deny_list FROM subscription_settings WHERE id = 1",
	).Scan(&allowList, &denyList)
	if err != nil {
		return fmt.Errorf("get subscription settings: %w", err)
	}
	for _, id := range denyList {
		if id == subscriptionID {
			return fmt.Errorf("subscription %s is deny-listed: %w", subscriptionID, ErrReassignRejected)
		}
	}
	if len(allowList) > 0 {
		allowed := false
		for _, id := range allowList {
			if id == subscriptionID {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("subscription %s is not on the allow list: %w", subscriptionID, ErrReassignRejected)
		}
	}

	var discovered bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM subscription_cache WHERE subscription_id = $1)", subscriptionID,
	).Scan(&discovered)
	if err != nil {
		return fmt.Errorf("check subscription %s: %w", subscriptionID, err)
	}
	if !discovered {
		return fmt.Errorf("subscription %s is not in the discovered catalog: %w", subscriptionID, ErrReassignRejected)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE participants SET subscription_id = $1, subscription_valid = true, updated_at = now()
		 WHERE workshop_id = $2 AND alias = $3`,
		subscriptionID, workshopID, alias,
	)
	if err != nil {
		return fmt.Errorf("reassign participant %s: %w", alias, err)
	}
	return nil
}

// ErrWorkshopNotDeletable marks a delete on a workshop whose status
// forbids it. Deleted is terminal and a teardown already in flight cannot
// be started twice.
var ErrWorkshopNotDeletable = errors.New("workshop not deletable")

// Delete tears down every provisioned resource of the workshop. The row is
// marked deleting immediately; the workflow settles it to deleted or failed
// depending on what the ledger holds afterwards.
func (s *WorkshopService) Delete(ctx context.Context, id string) error {
	workshop, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if workshop.Status == model.StatusDeleting || !model.CanTransition(workshop.Status, model.StatusDeleting) {
		return fmt.Errorf("workshop %s is %s: %w", id, workshop.Status, ErrWorkshopNotDeletable)
	}

	// The status filter repeats the check so two concurrent deletes cannot
	// both pass.
	tag, err := s.db.Exec(ctx,
		"UPDATE workshops SET status = $1, updated_at = now() WHERE id = $2 AND status NOT IN ('deleting', 'deleted')",
		model.StatusDeleting, id,
	)
	if err != nil {
		return fmt.Errorf("set workshop %s status to deleting: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workshop %s is already being deleted: %w", id, ErrWorkshopNotDeletable)
	}

	if err := signalProvision(ctx, s.tc, id, model.ProvisionTask{
		WorkflowName: "DeleteWorkshopWorkflow",
		WorkflowID:   fmt.Sprintf("delete-workshop-%s", id),
		Arg:          id,
	}); err != nil {
		return fmt.Errorf("start DeleteWorkshopWorkflow: %w", err)
	}

	return nil
}

// TakeCredentials returns the one-time credentials artifact and removes it.
// The second return is false when the artifact was already collected or was
// never produced.
func (s *WorkshopService) TakeCredentials(ctx context.Context, workshopID string) (string, bool, error) {
	var csv string
	err := s.db.QueryRow(ctx,
		"SELECT csv FROM workshop_credentials WHERE workshop_id = $1", workshopID,
	).Scan(&csv)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get credentials for workshop %s: %w", workshopID, err)
	}

	if _, err := s.db.Exec(ctx,
		"DELETE FROM workshop_credentials WHERE workshop_id = $1", workshopID,
	); err != nil {
		return "", false, fmt.Errorf("discard credentials for workshop %s: %w", workshopID, err)
	}
	return csv, true, nil
}
