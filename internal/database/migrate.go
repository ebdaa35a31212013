package database

import (
	"fmt"

	"sensive/internal/middleware"
	"sensive/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
	}
}

// JoinTables lists the many-to-many tables created alongside PersistentModels.
var JoinTables = []string{"post_likes", "post_tags"}

// Migrate creates or updates every table the blog reads from.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	middleware.Logger.Info("Database migration completed")
	return nil
}

// TableStatus reports, per table, whether it exists in the connected database.
func TableStatus(db *gorm.DB) (map[string]bool, error) {
	status := make(map[string]bool)
	for _, m := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		status[stmt.Schema.Table] = db.Migrator().HasTable(stmt.Schema.Table)
	}
	for _, table := range JoinTables {
		status[table] = db.Migrator().HasTable(table)
	}
	return status, nil
}
