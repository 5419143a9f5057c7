package domain

import (
	"github.com/yungbote/missions-backend/internal/domain/learning"
	"github.com/yungbote/missions-backend/internal/domain/user"
)

type User = user.User
type OperatingSystem = user.OperatingSystem

type Journey = learning.Journey
type Mission = learning.Mission
type Card = learning.Card
type MissionProgress = learning.MissionProgress
type MissionStatus = learning.MissionStatus
type QuizQuestion = learning.QuizQuestion
type QuizOption = learning.QuizOption
type QuizAttempt = learning.QuizAttempt
type Certificate = learning.Certificate

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Journey{},
		&Mission{},
		&Card{},
		&MissionProgress{},
		&QuizQuestion{},
		&QuizAttempt{},
		&Certificate{},
	}
}
