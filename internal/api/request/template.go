package request

// UpsertTemplate is the request body for creating or replacing an
// infrastructure template. The name comes from the URL path.
type UpsertTemplate struct {
	Description string `json:"description" validate:"max=2000"`
	Kind        string `json:"kind" validate:"required,oneof=arm bicep"`
	Content     string `json:"content" validate:"required"`
}
