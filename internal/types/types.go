package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// WorkItem represents a tracked unit of planned work (a "delta").
type WorkItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Complexity  Complexity `json:"complexity"`
	Priority    int        `json:"priority"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// idPattern matches category-prefixed identifiers like AUTH-001 or DB-17.
// The category is an uppercase alphanumeric tag starting with a letter.
var idPattern = regexp.MustCompile(`^([A-Z][A-Z0-9]*)-([0-9]+)$`)

// ValidID reports whether id is a well-formed work item identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// CategoryOf extracts the category prefix from a work item id.
// Returns an error if the id is malformed.
func CategoryOf(id string) (string, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return "", fmt.Errorf("invalid item id %q (expected CATEGORY-NUMBER, e.g. AUTH-001)", id)
	}
	return m[1], nil
}

// Validate checks if the work item has valid field values
func (w *WorkItem) Validate() error {
	if !ValidID(w.ID) {
		return fmt.Errorf("invalid item id %q (expected CATEGORY-NUMBER, e.g. AUTH-001)", w.ID)
	}
	if len(w.Name) == 0 {
		return fmt.Errorf("name is required")
	}
	if len(w.Name) > 500 {
		return fmt.Errorf("name must be 500 characters or less (got %d)", len(w.Name))
	}
	if w.Priority < 1 || w.Priority > 5 {
		return fmt.Errorf("priority must be between 1 and 5 (got %d)", w.Priority)
	}
	if !w.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", w.Status)
	}
	if !w.Complexity.IsValid() {
		return fmt.Errorf("invalid complexity: %s", w.Complexity)
	}
	return nil
}

// Category returns the category prefix of the item id, or "" if the id
// is malformed (which Validate rejects).
func (w *WorkItem) Category() string {
	cat, err := CategoryOf(w.ID)
	if err != nil {
		return ""
	}
	return cat
}

// Status represents the lifecycle state of a work item.
//
// The vocabulary is ordered (defined through reconciled) but transitions
// are deliberately unrestricted: callers may move an item backward, e.g.
// re-opening design after a failed review. Only values outside the
// vocabulary are rejected.
type Status string

const (
	StatusDefined          Status = "defined"
	StatusSpecInProgress   Status = "spec_in_progress"
	StatusSpecDone         Status = "spec_done"
	StatusDesignInProgress Status = "design_in_progress"
	StatusDesignDone       Status = "design_done"
	StatusPlanInProgress   Status = "plan_in_progress"
	StatusPlanDone         Status = "plan_done"
	StatusImplInProgress   Status = "impl_in_progress"
	StatusImplDone         Status = "impl_done"
	StatusReconciled       Status = "reconciled"
)

// AllStatuses lists the full vocabulary in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusDefined,
		StatusSpecInProgress,
		StatusSpecDone,
		StatusDesignInProgress,
		StatusDesignDone,
		StatusPlanInProgress,
		StatusPlanDone,
		StatusImplInProgress,
		StatusImplDone,
		StatusReconciled,
	}
}

// IsValid checks if the status value is in the vocabulary
func (s Status) IsValid() bool {
	for _, v := range AllStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusReconciled
}

// Complexity is a coarse effort estimate for a work item.
type Complexity string

const (
	ComplexityEasy   Complexity = "easy"
	ComplexityMedium Complexity = "medium"
	ComplexityHard   Complexity = "hard"
)

// IsValid checks if the complexity value is valid
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexityEasy, ComplexityMedium, ComplexityHard:
		return true
	}
	return false
}

// Rank returns the sort rank of the complexity (easy < medium < hard).
func (c Complexity) Rank() int {
	switch c {
	case ComplexityEasy:
		return 0
	case ComplexityMedium:
		return 1
	case ComplexityHard:
		return 2
	}
	return 3
}

// Priority bounds and default. 1 is most urgent, 5 is backlog.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
	PriorityBacklog  = 5

	DefaultPriority = PriorityNormal
)

// PriorityName returns the display label for a priority level.
func PriorityName(p int) string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityNormal:
		return "Normal"
	case PriorityLow:
		return "Low"
	case PriorityBacklog:
		return "Backlog"
	}
	return fmt.Sprintf("P%d", p)
}

// ValidPriority reports whether p is within the 1-5 range.
func ValidPriority(p int) bool {
	return p >= PriorityCritical && p <= PriorityBacklog
}

// Dependency represents a directed edge: Item depends on DependsOn,
// meaning DependsOn must be addressed first.
type Dependency struct {
	ItemID      string    `json:"item_id"`
	DependsOnID string    `json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// Event represents an audit trail entry
type Event struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	EventType EventType `json:"event_type"`
	Actor     string    `json:"actor"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType categorizes audit trail events
type EventType string

const (
	EventCreated           EventType = "created"
	EventStatusChanged     EventType = "status_changed"
	EventPriorityChanged   EventType = "priority_changed"
	EventUpdated           EventType = "updated"
	EventDependencyAdded   EventType = "dependency_added"
	EventDependencyRemoved EventType = "dependency_removed"
	EventBacklogCreated    EventType = "backlog_created"
	EventBacklogResolved   EventType = "backlog_resolved"
)

// BacklogType categorizes informally captured backlog entries.
type BacklogType string

const (
	BacklogBug         BacklogType = "BUG"
	BacklogIdea        BacklogType = "IDEA"
	BacklogImprovement BacklogType = "IMP"
	BacklogDebt        BacklogType = "DEBT"
	BacklogQuestion    BacklogType = "Q"
)

// IsValid checks if the backlog type value is valid
func (t BacklogType) IsValid() bool {
	switch t {
	case BacklogBug, BacklogIdea, BacklogImprovement, BacklogDebt, BacklogQuestion:
		return true
	}
	return false
}

// ParseBacklogType converts user input (any case) to a BacklogType.
func ParseBacklogType(s string) (BacklogType, error) {
	t := BacklogType(strings.ToUpper(s))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid backlog type %q (expected bug, idea, imp, debt, or q)", s)
	}
	return t, nil
}

// BacklogStatus is the resolution state of a backlog item.
type BacklogStatus string

const (
	BacklogOpen      BacklogStatus = "open"
	BacklogFixed     BacklogStatus = "fixed"
	BacklogPromoted  BacklogStatus = "promoted"
	BacklogDismissed BacklogStatus = "dismissed"
	BacklogDuplicate BacklogStatus = "duplicate"
)

// IsValid checks if the backlog status value is valid
func (s BacklogStatus) IsValid() bool {
	switch s {
	case BacklogOpen, BacklogFixed, BacklogPromoted, BacklogDismissed, BacklogDuplicate:
		return true
	}
	return false
}

// IsResolved reports whether the status is anything other than open.
func (s BacklogStatus) IsResolved() bool {
	return s != BacklogOpen
}

// BacklogItem is an informally captured bug/idea/improvement/question,
// retained for audit after resolution.
type BacklogItem struct {
	ID          string        `json:"id"`
	Type        BacklogType   `json:"type"`
	Title       string        `json:"title"`
	Priority    int           `json:"priority"`
	Related     []string      `json:"related,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Status      BacklogStatus `json:"status"`
	DuplicateOf string        `json:"duplicate_of,omitempty"` // set only when Status is duplicate
	PromotedTo  string        `json:"promoted_to,omitempty"`  // set only when Status is promoted
	Resolution  string        `json:"resolution,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

// Validate checks if the backlog item has valid field values
func (b *BacklogItem) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !b.Type.IsValid() {
		return fmt.Errorf("invalid backlog type: %s", b.Type)
	}
	if !strings.HasPrefix(b.ID, string(b.Type)+"-") {
		return fmt.Errorf("backlog id %s does not match type prefix %s-", b.ID, b.Type)
	}
	if len(b.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(b.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(b.Title))
	}
	if b.Priority < 1 || b.Priority > 5 {
		return fmt.Errorf("priority must be between 1 and 5 (got %d)", b.Priority)
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("invalid backlog status: %s", b.Status)
	}
	if b.Status == BacklogDuplicate && b.DuplicateOf == "" {
		return fmt.Errorf("duplicate_of must be set when status is duplicate")
	}
	if b.Status != BacklogDuplicate && b.DuplicateOf != "" {
		return fmt.Errorf("duplicate_of should not be set when status is %s", b.Status)
	}
	for _, rel := range b.Related {
		if !ValidID(rel) {
			return fmt.Errorf("invalid related item id %q", rel)
		}
	}
	return nil
}

// ItemFilter is used to filter work item queries
type ItemFilter struct {
	Status         *Status
	StatusContains string // substring match on the status value
	Priority       *int
	Complexity     *Complexity
	Category       *string
	Limit          int
}

// BacklogFilter is used to filter backlog queries
type BacklogFilter struct {
	Type   *BacklogType
	Status *BacklogStatus
}

// Statistics provides aggregate metrics over the store.
type Statistics struct {
	TotalItems      int            `json:"total_items"`
	ByStatus        map[Status]int `json:"by_status"`
	ByPriority      map[int]int    `json:"by_priority"`
	TerminalItems   int            `json:"terminal_items"`
	OpenBacklog     int            `json:"open_backlog"`
	ResolvedBacklog int            `json:"resolved_backlog"`
	TotalEdges      int            `json:"total_edges"`
}
