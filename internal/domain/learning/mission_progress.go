package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MissionStatus moves locked -> available -> in_progress -> completed and
// never backwards.
type MissionStatus string

const (
	StatusLocked     MissionStatus = "locked"
	StatusAvailable  MissionStatus = "available"
	StatusInProgress MissionStatus = "in_progress"
	StatusCompleted  MissionStatus = "completed"
)

func (s MissionStatus) Valid() bool {
	switch s {
	case StatusLocked, StatusAvailable, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Playable reports whether content and quiz may be accessed.
func (s MissionStatus) Playable() bool {
	return s == StatusAvailable || s == StatusInProgress || s == StatusCompleted
}

type MissionProgress struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;column:user_id;not null;index:idx_mission_progress_user_mission,unique,priority:1" json:"userId"`
	MissionID uint          `gorm:"column:mission_id;not null;index:idx_mission_progress_user_mission,unique,priority:2" json:"missionId"`
	Mission   *Mission      `gorm:"constraint:OnDelete:CASCADE;foreignKey:MissionID;references:ID" json:"mission,omitempty"`
	Status    MissionStatus `gorm:"column:status;not null;default:'locked';index" json:"status"`

	StartedAt   *time.Time `gorm:"column:started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	QuizPassed  bool       `gorm:"column:quiz_passed;not null;default:false" json:"quizPassed"`
	QuizScore   *int       `gorm:"column:quiz_score" json:"quizScore,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (MissionProgress) TableName() string { return "mission_progress" }

func (p *MissionProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusLocked
	}
	return nil
}
