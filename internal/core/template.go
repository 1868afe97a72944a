package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/trainops/workshop-portal/internal/model"
)

// ErrTemplateInUse is returned when deleting a template still referenced by
// a live workshop.
var ErrTemplateInUse = errors.New("template is referenced by existing workshops")

// ErrInvalidTemplate is returned when stored content fails validation for
// its declared kind.
var ErrInvalidTemplate = errors.New("invalid template")

type TemplateService struct {
	db DB
}

func NewTemplateService(db DB) *TemplateService {
	return &TemplateService{db: db}
}

func (s *TemplateService) List(ctx context.Context) ([]model.Template, error) {
	rows, err := s.db.Query(ctx,
		"SELECT name, description, kind, content, updated_at FROM templates ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.Name, &t.Description, &t.Kind, &t.Content, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

func (s *TemplateService) Get(ctx context.Context, name string) (*model.Template, error) {
	var t model.Template
	err := s.db.QueryRow(ctx,
		"SELECT name, description, kind, content, updated_at FROM templates WHERE name = $1", name,
	).Scan(&t.Name, &t.Description, &t.Kind, &t.Content, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", name, err)
	}
	return &t, nil
}

// Upsert stores a template. ARM templates must parse as JSON objects before
// they are accepted; a broken template would otherwise only surface mid
// provisioning.
func (s *TemplateService) Upsert(ctx context.Context, t *model.Template) error {
	switch t.Kind {
	case model.TemplateKindARM:
		var doc map[string]any
		if err := json.Unmarshal([]byte(t.Content), &doc); err != nil {
			return fmt.Errorf("template %s is not valid ARM JSON (%v): %w", t.Name, err, ErrInvalidTemplate)
		}
	case model.TemplateKindBicep:
		// Bicep is compiled out-of-band; stored as-is.
	default:
		return fmt.Errorf("unknown template kind %q: %w", t.Kind, ErrInvalidTemplate)
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO templates (name, description, kind, content, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (name) DO UPDATE SET description = $2, kind = $3, content = $4, updated_at = now()`,
		t.Name, t.Description, t.Kind, t.Content,
	)
	if err != nil {
		return fmt.Errorf("upsert template %s: %w", t.Name, err)
	}
	return nil
}

func (s *TemplateService) Delete(ctx context.Context, name string) error {
	var inUse bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM workshops WHERE template_name = $1 AND status NOT IN ('deleted'))", name,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("check template %s references: %w", name, err)
	}
	if inUse {
		return ErrTemplateInUse
	}

	tag, err := s.db.Exec(ctx, "DELETE FROM templates WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("delete template %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("template %s not found", name)
	}
	return nil
}
