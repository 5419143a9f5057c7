package learning

import (
	"time"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

type Mission struct {
	ID        uint     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	JourneyID uint     `gorm:"column:journey_id;not null;index:idx_mission_journey_order,unique,priority:1" json:"journeyId"`
	Journey   *Journey `gorm:"constraint:OnDelete:CASCADE;foreignKey:JourneyID;references:ID" json:"journey,omitempty"`
	Order     int      `gorm:"column:order;not null;index:idx_mission_journey_order,unique,priority:2" json:"order"`
	Number    int      `gorm:"column:number;not null" json:"number"`

	Title       string                      `gorm:"column:title;not null" json:"title"`
	Subtitle    string                      `gorm:"column:subtitle;not null" json:"subtitle"`
	Description string                      `gorm:"column:description;type:text;not null" json:"description"`
	Objectives  datatypes.JSONSlice[string] `gorm:"column:objectives" json:"objectives"`
	Duration    int                         `gorm:"column:duration;not null" json:"duration"`
	Difficulty  Difficulty                  `gorm:"column:difficulty;not null" json:"difficulty"`

	ResultTitle string `gorm:"column:result_title;not null" json:"resultTitle"`
	ResultDesc  string `gorm:"column:result_desc;type:text;not null" json:"resultDesc"`
	ShowOffText string `gorm:"column:show_off_text;type:text;not null" json:"showOffText"`

	Content  datatypes.JSON `gorm:"column:content" json:"content,omitempty"`
	VideoURL *string        `gorm:"column:video_url" json:"videoUrl,omitempty"`
	RepoURL  *string        `gorm:"column:repo_url" json:"repoUrl,omitempty"`
	Points   int            `gorm:"column:points;not null;default:100" json:"points"`

	Cards []Card `gorm:"foreignKey:MissionID;references:ID" json:"cards,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Mission) TableName() string { return "mission" }
