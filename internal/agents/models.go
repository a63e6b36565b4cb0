package agents

import "time"

// Profile is the owning user context a debate is run for. The summary and
// trait fields are opaque text produced elsewhere; the orchestrator only
// threads them into persona bindings.
type Profile struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Summary        string    `gorm:"type:text" json:"summary"`
	ExpertiseAreas string    `gorm:"type:text" json:"expertise_areas"`
	RiskTolerance  string    `gorm:"type:varchar(50)" json:"risk_tolerance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Agent is a debate persona: identity, model routing, a raw persona template,
// and generation parameters.
type Agent struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProfileID uint64 `gorm:"index;not null" json:"profile_id"`

	Name string `gorm:"type:varchar(255);not null" json:"name"`
	Role string `gorm:"type:varchar(255);not null" json:"role"`

	ModelProvider string `gorm:"type:varchar(32);not null" json:"model_provider"`
	ModelName     string `gorm:"type:varchar(64);not null" json:"model_name"`

	// Raw YAML persona template, rendered per turn.
	PromptTemplate string `gorm:"type:text;not null" json:"prompt_template"`

	Temperature float64 `gorm:"not null;default:0.7" json:"temperature"`
	MaxTokens   int     `gorm:"not null;default:500" json:"max_tokens"`

	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Agent) TableName() string { return "agents" }
