package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/missions-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates the uniqueness guarantees the write paths depend
// on. AutoMigrate already builds them from struct tags; this covers
// databases migrated before the tags existed.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_mission_progress_user_mission ON mission_progress (user_id, mission_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_certificate_user_journey ON certificate (user_id, journey_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_certificate_certificate_number ON certificate (certificate_number)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_certificate_verification_code ON certificate (verification_code)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_firebase_uid ON "user" (firebase_uid)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_mission_journey_order ON mission (journey_id, "order")`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
