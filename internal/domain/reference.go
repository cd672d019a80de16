package domain

// Reference data rows are slow-changing lookup tables. The engine reads
// them by label at creation time and by foreign key afterwards; it never
// writes them.

// StatusLabelOpen is the initial status every ticket is created in.
const StatusLabelOpen = "Open"

// ClosedStatusLabels lists the accepted spellings of the terminal status,
// in resolution order. Historical data carries accent and casing variants.
var ClosedStatusLabels = []string{"Fermé", "Ferme", "fermé", "ferme", "Closed"}

// Status is a lifecycle state row.
type Status struct {
	ID    int64
	Label string
}

// Priority is an urgency row referenced by tickets and SLA policies.
type Priority struct {
	ID    int64
	Label string
}

const (
	PriorityLabelLow      = "Low"
	PriorityLabelMedium   = "Medium"
	PriorityLabelHigh     = "High"
	PriorityLabelCritical = "Critical"
)

// Category classifies a ticket.
type Category struct {
	ID    int64
	Label string
}

// SLAPolicy carries per-priority response/resolution targets in minutes.
// It is resolved once at creation and frozen into the ticket; later policy
// edits do not affect existing tickets.
type SLAPolicy struct {
	ID                int64
	PriorityID        int64
	ResponseMinutes   int
	ResolutionMinutes int
}

// AssignmentGroup is the support team bound to tickets of a given type
// prefix at a given location.
type AssignmentGroup struct {
	ID         int64
	Name       string
	LocationID int64
}

const (
	// GroupPrefixIncidents selects incident support groups.
	GroupPrefixIncidents = "Support.Incidents."
	// GroupPrefixTasks selects service-request support groups.
	GroupPrefixTasks = "Support.Taches."
)

// Location is a physical site users and groups belong to.
type Location struct {
	ID   int64
	Name string
}
