package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/missions-backend/internal/data/repos/learning"
	"github.com/yungbote/missions-backend/internal/data/repos/user"
	"github.com/yungbote/missions-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type JourneyRepo = learning.JourneyRepo
type MissionRepo = learning.MissionRepo
type CardRepo = learning.CardRepo
type MissionProgressRepo = learning.MissionProgressRepo
type QuizQuestionRepo = learning.QuizQuestionRepo
type QuizAttemptRepo = learning.QuizAttemptRepo
type CertificateRepo = learning.CertificateRepo

type UserJourney = learning.UserJourney

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewJourneyRepo(db *gorm.DB, baseLog *logger.Logger) JourneyRepo {
	return learning.NewJourneyRepo(db, baseLog)
}
func NewMissionRepo(db *gorm.DB, baseLog *logger.Logger) MissionRepo {
	return learning.NewMissionRepo(db, baseLog)
}
func NewCardRepo(db *gorm.DB, baseLog *logger.Logger) CardRepo {
	return learning.NewCardRepo(db, baseLog)
}
func NewMissionProgressRepo(db *gorm.DB, baseLog *logger.Logger) MissionProgressRepo {
	return learning.NewMissionProgressRepo(db, baseLog)
}
func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
	return learning.NewQuizQuestionRepo(db, baseLog)
}
func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return learning.NewQuizAttemptRepo(db, baseLog)
}
func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return learning.NewCertificateRepo(db, baseLog)
}

// Set bundles every table repo over one connection.
type Set struct {
	User            UserRepo
	Journey         JourneyRepo
	Mission         MissionRepo
	Card            CardRepo
	MissionProgress MissionProgressRepo
	QuizQuestion    QuizQuestionRepo
	QuizAttempt     QuizAttemptRepo
	Certificate     CertificateRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		User:            NewUserRepo(db, baseLog),
		Journey:         NewJourneyRepo(db, baseLog),
		Mission:         NewMissionRepo(db, baseLog),
		Card:            NewCardRepo(db, baseLog),
		MissionProgress: NewMissionProgressRepo(db, baseLog),
		QuizQuestion:    NewQuizQuestionRepo(db, baseLog),
		QuizAttempt:     NewQuizAttemptRepo(db, baseLog),
		Certificate:     NewCertificateRepo(db, baseLog),
	}
}
