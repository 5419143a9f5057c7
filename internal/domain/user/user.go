package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OperatingSystem string

const (
	OSWindows OperatingSystem = "windows"
	OSMac     OperatingSystem = "mac"
	OSLinux   OperatingSystem = "linux"
)

func (o OperatingSystem) Valid() bool {
	switch o {
	case OSWindows, OSMac, OSLinux:
		return true
	}
	return false
}

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirebaseUID string    `gorm:"column:firebase_uid;uniqueIndex;not null" json:"firebaseUid"`
	Email       string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	PhotoURL    *string   `gorm:"column:photo_url" json:"photoUrl,omitempty"`

	CurrentJourney int `gorm:"column:current_journey;not null;default:1" json:"currentJourney"`
	CurrentMission int `gorm:"column:current_mission;not null;default:1" json:"currentMission"`
	TotalPoints    int `gorm:"column:total_points;not null;default:0" json:"totalPoints"`

	OperatingSystem     *OperatingSystem `gorm:"column:operating_system" json:"operatingSystem,omitempty"`
	OnboardingCompleted bool             `gorm:"column:onboarding_completed;not null;default:false" json:"onboardingCompleted"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CurrentJourney == 0 {
		u.CurrentJourney = 1
	}
	if u.CurrentMission == 0 {
		u.CurrentMission = 1
	}
	return nil
}
