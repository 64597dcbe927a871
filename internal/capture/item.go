package capture

// Type classifies a captured line. Exactly one type is assigned per capture.
type Type string

const (
	TypeTask  Type = "task"
	TypeHabit Type = "habit"
	TypeNote  Type = "note"
)

// Status is the workflow state of a task. Notes never carry a status.
type Status string

const (
	StatusTodo      Status = "todo"
	StatusDoneToday Status = "done_today"
	StatusReview    Status = "review"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusProject   Status = "project"
)

// Priority is the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Category is the color bucket of a task.
type Category string

const (
	CategoryRed    Category = "red"
	CategoryYellow Category = "yellow"
	CategoryPurple Category = "purple"
	CategoryGreen  Category = "green"
)

// IsValidType reports whether t is a known capture type.
func IsValidType(t Type) bool {
	switch t {
	case TypeTask, TypeHabit, TypeNote:
		return true
	default:
		return false
	}
}

// IsValidStatus reports whether s is a known workflow status.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusDoneToday, StatusReview, StatusCancelled, StatusCompleted, StatusProject:
		return true
	default:
		return false
	}
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// IsValidCategory reports whether c is a known category.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryRed, CategoryYellow, CategoryPurple, CategoryGreen:
		return true
	default:
		return false
	}
}

// IsDone reports whether s counts as finished work (stamps completed_at).
func IsDone(s Status) bool {
	return s == StatusCompleted || s == StatusDoneToday
}

// PriorityFromDigit maps the quick-capture digits 1-3 to a priority.
func PriorityFromDigit(d byte) (Priority, bool) {
	switch d {
	case '1':
		return PriorityLow, true
	case '2':
		return PriorityMedium, true
	case '3':
		return PriorityHigh, true
	default:
		return "", false
	}
}

// CategoryFromLetter maps R/Y/P/G (any case) to a category.
func CategoryFromLetter(l byte) (Category, bool) {
	switch l {
	case 'r', 'R':
		return CategoryRed, true
	case 'y', 'Y':
		return CategoryYellow, true
	case 'p', 'P':
		return CategoryPurple, true
	case 'g', 'G':
		return CategoryGreen, true
	default:
		return "", false
	}
}

// Item is a stored capture.
type Item struct {
	// ID is a ULID assigned by the store, unrelated to Parsed.ID
	ID string `json:"id"`

	Type  Type   `json:"type"`
	Title string `json:"title"`

	// Status is nil for notes
	Status *Status `json:"status,omitempty"`

	ProjectID *string `json:"project_id,omitempty"`

	// Project is the display name of the linked project, joined on read
	Project *string `json:"project,omitempty"`

	Hashtags []string `json:"hashtags,omitempty"`

	// Priority, DueDate and Category are only ever set on tasks
	Priority *Priority `json:"priority,omitempty"`
	DueDate  *string   `json:"due_date,omitempty"`
	Category *Category `json:"category,omitempty"`

	// Description is free-form markdown added after capture
	Description *string `json:"description,omitempty"`

	// RawInput is the line exactly as the user typed it
	RawInput string `json:"raw_input"`

	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	CompletedAt *int64 `json:"completed_at,omitempty"`
	DeletedAt   *int64 `json:"deleted_at,omitempty"`
}

// Project groups items under a user-chosen name.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NameNorm  string `json:"name_norm"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ProjectSummary is a project with the number of live items linked to it.
type ProjectSummary struct {
	Project
	ItemCount int `json:"item_count"`
}
