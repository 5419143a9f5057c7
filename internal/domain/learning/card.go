package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardType string

const (
	CardRescue       CardType = "rescue"
	CardConcept      CardType = "concept"
	CardComparison   CardType = "comparison"
	CardArchitecture CardType = "architecture"
	CardCommand      CardType = "command"
	CardDecision     CardType = "decision"
)

type Card struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MissionID uint      `gorm:"column:mission_id;not null;index" json:"missionId"`
	Type      CardType  `gorm:"column:type;not null" json:"type"`
	Icon      string    `gorm:"column:icon;not null" json:"icon"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	Order     int       `gorm:"column:order;not null" json:"order"`
}

func (Card) TableName() string { return "card" }

func (c *Card) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
