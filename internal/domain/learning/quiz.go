package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizOption struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// QuizQuestion ids are stable seed keys such as "m1-q01".
type QuizQuestion struct {
	ID          string                          `gorm:"primaryKey" json:"id"`
	MissionID   uint                            `gorm:"column:mission_id;not null;index" json:"missionId"`
	Question    string                          `gorm:"column:question;type:text;not null" json:"question"`
	Options     datatypes.JSONSlice[QuizOption] `gorm:"column:options;not null" json:"options"`
	CorrectID   string                          `gorm:"column:correct_id;not null" json:"-"`
	Explanation *string                         `gorm:"column:explanation;type:text" json:"-"`
	Order       int                             `gorm:"column:order;not null" json:"order"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

// QuizAttempt rows are append-only.
type QuizAttempt struct {
	ID            uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                             `gorm:"type:uuid;column:user_id;not null;index:idx_quiz_attempt_user_mission,priority:1" json:"userId"`
	MissionID     uint                                  `gorm:"column:mission_id;not null;index:idx_quiz_attempt_user_mission,priority:2" json:"missionId"`
	AttemptNumber int                                   `gorm:"column:attempt_number;not null" json:"attemptNumber"`
	Score         int                                   `gorm:"column:score;not null" json:"score"`
	Total         int                                   `gorm:"column:total;not null" json:"total"`
	Passed        bool                                  `gorm:"column:passed;not null" json:"passed"`
	PointsEarned  int                                   `gorm:"column:points_earned;not null;default:0" json:"pointsEarned"`
	Answers       datatypes.JSONType[map[string]string] `gorm:"column:answers" json:"answers"`
	CreatedAt     time.Time                             `gorm:"not null;index:idx_quiz_attempt_user_mission,priority:3" json:"createdAt"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }

func (a *QuizAttempt) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
