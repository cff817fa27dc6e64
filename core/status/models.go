package status

import "time"

// Status is a user's self-reported availability.
type Status string

const (
	Available    Status = "AVAILABLE"
	Intervention Status = "INTERVENTION"
	Unavailable  Status = "UNAVAILABLE"
	Absent       Status = "ABSENT"
)

var AllStatuses = []Status{Available, Intervention, Unavailable, Absent}

// statusPriorities drive the team view ordering; lower sorts first.
var statusPriorities = map[Status]int{
	Available:    0,
	Intervention: 1,
	Unavailable:  2,
	Absent:       3,
}

func (s Status) Valid() bool {
	_, ok := statusPriorities[s]
	return ok
}

// Priority returns the team view sort rank of s.
func (s Status) Priority() int {
	return statusPriorities[s]
}

// Event is an immutable record of a status change. Events are append-only:
// a superseding submission is a new row with a later CreatedAt.
type Event struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	Status    Status     `json:"status"`
	Comment   string     `json:"comment,omitempty"`
	ReturnAt  *time.Time `json:"return_at,omitempty"`
	FileID    *int       `json:"file_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// After reports whether ev supersedes other, breaking CreatedAt ties by ID so
// that the reduction over concurrent submissions stays total and deterministic.
func (ev Event) After(other Event) bool {
	if ev.CreatedAt.Equal(other.CreatedAt) {
		return ev.ID > other.ID
	}
	return ev.CreatedAt.After(other.CreatedAt)
}

// NewEventPayload is the real-time notice broadcast to the admins room when a
// member reports.
type NewEventPayload struct {
	UserID   int        `json:"userId"`
	Status   Status     `json:"status"`
	Comment  string     `json:"comment"`
	ReturnAt *time.Time `json:"returnAt"`
}

type NewEvent struct {
	Status   Status     `json:"status" validate:"required,status"`
	Comment  string     `json:"comment" validate:"max=300"`
	ReturnAt *time.Time `json:"return_at"`
	FileID   *int       `json:"file_id"`
}

// CurrentStatus is the last known state of a single user; all fields are null
// when the user never reported.
type CurrentStatus struct {
	Status   *Status    `json:"status"`
	Comment  *string    `json:"comment"`
	ReturnAt *time.Time `json:"return_at"`
}

// TeamMember is a roster entry enriched with the member's current status.
type TeamMember struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Grade     string `json:"grade,omitempty"`
	Status    Status `json:"status"`
}
