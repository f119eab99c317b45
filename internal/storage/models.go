package storage

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type Stat struct {
	ID          int64
	UserID      uuid.UUID
	Name        string
	Description string
	Category    string
	// AcknowledgedLevel is the last level the user explicitly celebrated.
	// The eligible level is always recomputed from the grant ledger.
	AcknowledgedLevel int
	CreatedAt         time.Time
}

// XPGrant is one immutable ledger entry. Rows are insert-only; corrections
// are new grants with negative amounts.
type XPGrant struct {
	ID         int64
	UserID     uuid.UUID
	StatID     int64
	Amount     int
	SourceType string
	SourceID   *int64
	Reason     *string
	CreatedAt  time.Time
}

type Task struct {
	ID             int64
	UserID         uuid.UUID
	Title          string
	SourceType     string
	QuestID        *int64
	StatID         *int64
	EstimatedXP    *int
	FamilyMemberID *int64
	Status         string
	Archived       bool
	Feedback       *string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Quest is a task container. Kind "experiment" differs from "quest" only in
// that it never influences AI task generation. Tasks reference the container
// by id; deleting the container leaves them (and their grants) untouched.
type Quest struct {
	ID                   int64
	UserID               uuid.UUID
	Kind                 string
	Title                string
	Description          string
	Goal                 *string
	StartDate            *time.Time
	EndDate              *time.Time
	InfluencesGeneration bool
	CreatedAt            time.Time
}

type JournalEntry struct {
	ID             int64
	UserID         uuid.UUID
	Date           string // YYYY-MM-DD, unique per user
	Status         string
	Processing     bool
	InitialMessage string
	Summary        *string
	Synopsis       *string
	Title          *string
	ContentTags    []string
	ToneTags       []string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

type JournalTurn struct {
	ID        int64
	EntryID   int64
	Role      string
	Content   string
	CreatedAt time.Time
}

type FamilyMember struct {
	ID           int64
	UserID       uuid.UUID
	Name         string
	Relationship string
	Likes        *string
	Dislikes     *string
	CreatedAt    time.Time
}
