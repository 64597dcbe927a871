package capture

// ExportRecord is one item line in a JSONL backup. Projects travel by name so
// a restore into a fresh store can re-create them.
type ExportRecord struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Status      *Status   `json:"status,omitempty"`
	Project     *string   `json:"project,omitempty"`
	Hashtags    []string  `json:"hashtags,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Description *string   `json:"description,omitempty"`
	RawInput    string    `json:"raw_input"`
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
	CompletedAt *int64    `json:"completed_at,omitempty"`
	DeletedAt   *int64    `json:"deleted_at,omitempty"`

	// JotExport marks the header line; item lines leave it false
	JotExport bool `json:"_jot_export,omitempty"`
}

// ToExportRecord converts an Item to its backup form.
func (it *Item) ToExportRecord() ExportRecord {
	return ExportRecord{
		ID:          it.ID,
		Type:        it.Type,
		Title:       it.Title,
		Status:      it.Status,
		Project:     it.Project,
		Hashtags:    it.Hashtags,
		Priority:    it.Priority,
		DueDate:     it.DueDate,
		Category:    it.Category,
		Description: it.Description,
		RawInput:    it.RawInput,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
		CompletedAt: it.CompletedAt,
		DeletedAt:   it.DeletedAt,
	}
}

// ToItem converts a backup record back into an Item. ProjectID is left for
// the caller to resolve from Project.
func (r *ExportRecord) ToItem() *Item {
	return &Item{
		ID:          r.ID,
		Type:        r.Type,
		Title:       r.Title,
		Status:      r.Status,
		Project:     r.Project,
		Hashtags:    r.Hashtags,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Category:    r.Category,
		Description: r.Description,
		RawInput:    r.RawInput,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
		DeletedAt:   r.DeletedAt,
	}
}
