package request

// UpdateSubscriptionSettings replaces the allocation allow and deny lists.
// Version must carry the value the caller last read; a stale version is
// rejected so concurrent edits cannot silently overwrite each other.
type UpdateSubscriptionSettings struct {
	AllowList []string `json:"allow_list" validate:"dive,uuid"`
	DenyList  []string `json:"deny_list" validate:"dive,uuid"`
	Version   int      `json:"version" validate:"min=0"`
}
