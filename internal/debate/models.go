package debate

import (
	"encoding/json"
	"time"
)

// FormatTurnBased is the only debate format currently supported: agents speak
// in round-robin order, turn t belonging to participants[t mod N].
const FormatTurnBased = "turn_based"

type SessionStatus string

// Status transitions are monotonic: pending -> running -> completed|failed.
const (
	StatusPending   SessionStatus = "pending"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

type Session struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	ProfileID uint64 `gorm:"index;not null" json:"profile_id"`

	Title string `gorm:"type:varchar(255)" json:"title"`
	Topic string `gorm:"type:text;not null" json:"topic"`

	Format string `gorm:"type:varchar(32);not null" json:"format"`
	// Ordered participant ids, JSON-encoded. Order fixes the round-robin.
	AgentIDs string `gorm:"type:text;not null" json:"-"`
	MaxTurns int    `gorm:"not null" json:"max_turns"`

	Status SessionStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "debate_sessions" }

func (s *Session) ParticipantIDs() ([]uint64, error) {
	var ids []uint64
	if err := json.Unmarshal([]byte(s.AgentIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Session) SetParticipantIDs(ids []uint64) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	s.AgentIDs = string(b)
	return nil
}

// Turn is one agent contribution. Name and role are snapshotted at turn time
// so later agent edits cannot rewrite history.
type Turn struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string `gorm:"type:varchar(26);not null;index:uniq_turn_session_idx,unique,priority:1" json:"session_id"`
	TurnIndex int    `gorm:"not null;index:uniq_turn_session_idx,unique,priority:2" json:"turn"`

	AgentID   uint64 `gorm:"not null;index" json:"agent_id"`
	AgentName string `gorm:"type:varchar(255);not null" json:"agent_name"`
	AgentRole string `gorm:"type:varchar(255);not null" json:"agent_role"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
}

func (Turn) TableName() string { return "debate_turns" }

// Summary is the cross-agent synthesis, created at most once per session.
type Summary struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`

	Content            string `gorm:"type:text;not null" json:"summary"`
	MessageCount       int    `gorm:"not null" json:"message_count"`
	AgentsParticipated int    `gorm:"not null" json:"agents_participated"`

	CreatedAt time.Time `json:"created_at"`
}

func (Summary) TableName() string { return "debate_summaries" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// RunJob tracks an asynchronously executed debate run (worker path).
type RunJob struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	SessionID string `gorm:"size:26;index;not null"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RunJob) TableName() string { return "debate_run_jobs" }
