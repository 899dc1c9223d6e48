package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/domain/post"
	"github.com/halo-extras/backend/internal/domain/summary"
	"github.com/halo-extras/backend/internal/infrastructure/persistence/models"
)

// SchemaModels lists every table the application persists
func SchemaModels() []any {
	return []any{
		&footprint.Footprint{},
		&post.Tag{},
		&post.Post{},
		&summary.PostSummary{},
		&models.CacheEntryModel{},
	}
}

// AutoMigrate creates or updates the schema from the GORM models.
// PostgreSQL deployments use the SQL migrations instead; this path serves
// SQLite where golang-migrate has no driver wired.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(SchemaModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
