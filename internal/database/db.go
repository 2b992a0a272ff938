package database

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM.
// TranslateError is on so unique-index violations surface as
// gorm.ErrDuplicatedKey for every supported driver.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs auto-migration for all core models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.GlobalRole{},
		&model.User{},
		&model.RefreshToken{},
		&model.Lab{},
		&model.LabRole{},
		&model.LabMember{},
		&model.Item{},
		&model.Tag{},
		&model.LabInventoryItem{},
		&model.LabItemTag{},
		&model.InventoryLog{},
	)
}

// SeedReservedRoles ensures the system-managed Former Member tombstone role
// exists. It is the only lab role allowed to carry a negative level.
func SeedReservedRoles(ctx context.Context, db *gorm.DB) error {
	var existing model.LabRole
	err := db.WithContext(ctx).
		Where("permission_level = ?", model.FormerMemberLevel).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	former := model.LabRole{
		Name:            model.FormerMemberRoleName,
		PermissionLevel: model.FormerMemberLevel,
		IsSystem:        true,
	}
	return db.WithContext(ctx).Create(&former).Error
}
