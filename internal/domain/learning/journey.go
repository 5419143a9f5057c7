package learning

import "time"

// Journey is seeded reference data. Order is the curriculum sequence.
type Journey struct {
	ID               uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Order            int    `gorm:"column:order;not null;uniqueIndex" json:"order"`
	Name             string `gorm:"column:name;not null" json:"name"`
	Title            string `gorm:"column:title;not null" json:"title"`
	Description      string `gorm:"column:description;type:text;not null" json:"description"`
	Color            string `gorm:"column:color;not null" json:"color"`
	Icon             string `gorm:"column:icon;not null" json:"icon"`
	RequiredMissions int    `gorm:"column:required_missions;not null" json:"requiredMissions"`

	Missions []Mission `gorm:"foreignKey:JourneyID;references:ID" json:"missions,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Journey) TableName() string { return "journey" }
