package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eduai-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SaveGeneratedFile records the output of an AI generation run.
func SaveGeneratedFile(ctx context.Context, db *sqlx.DB, userID, fileType, title, content string) (models.GeneratedFile, error) {
	file := models.GeneratedFile{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileType:  fileType,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO generated_files (id, user_id, file_type, title, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, file.ID, file.UserID, file.FileType, file.Title, file.Content, file.CreatedAt)
	if err != nil {
		return models.GeneratedFile{}, err
	}
	return file, nil
}

// ListGeneratedFiles returns the user's generated materials, newest first.
func ListGeneratedFiles(ctx context.Context, db *sqlx.DB, userID string, fileType string, limit, offset int) ([]models.GeneratedFile, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items := []models.GeneratedFile{}
	if fileType != "" {
		err := db.SelectContext(ctx, &items, `
SELECT id, user_id, file_type, title, content, created_at
FROM generated_files
WHERE user_id = $1 AND file_type = $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`, userID, fileType, limit, offset)
		return items, err
	}
	err := db.SelectContext(ctx, &items, `
SELECT id, user_id, file_type, title, content, created_at
FROM generated_files
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	return items, err
}

// GetGeneratedFile loads one file owned by userID.
func GetGeneratedFile(ctx context.Context, db *sqlx.DB, fileID, userID string) (models.GeneratedFile, error) {
	var file models.GeneratedFile
	err := db.GetContext(ctx, &file, `
SELECT id, user_id, file_type, title, content, created_at
FROM generated_files
WHERE id = $1 AND user_id = $2
`, fileID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GeneratedFile{}, ErrNotFound("Material not found")
	}
	return file, err
}

// ShareMaterial publishes a generated file into the school's library.
// Sharing twice is a conflict.
func ShareMaterial(ctx context.Context, db *sqlx.DB, fileID, schoolID, sharedBy string) (models.SharedMaterial, error) {
	if _, err := GetGeneratedFile(ctx, db, fileID, sharedBy); err != nil {
		return models.SharedMaterial{}, err
	}
	var exists bool
	if err := db.GetContext(ctx, &exists, `
SELECT EXISTS(SELECT 1 FROM shared_materials WHERE file_id = $1 AND school_id = $2)
`, fileID, schoolID); err != nil {
		return models.SharedMaterial{}, err
	}
	if exists {
		return models.SharedMaterial{}, ErrConflict("Material already shared")
	}
	shared := models.SharedMaterial{
		ID:       uuid.NewString(),
		FileID:   fileID,
		SchoolID: schoolID,
		SharedBy: sharedBy,
		SharedAt: time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO shared_materials (id, file_id, school_id, shared_by, shared_at)
VALUES ($1,$2,$3,$4,$5)
`, shared.ID, shared.FileID, shared.SchoolID, shared.SharedBy, shared.SharedAt)
	if err != nil {
		return models.SharedMaterial{}, err
	}
	return shared, nil
}

// SharedLibraryItem is a library entry joined with its file and author.
type SharedLibraryItem struct {
	ID          string    `db:"id" json:"id"`
	FileID      string    `db:"file_id" json:"fileId"`
	FileType    string    `db:"file_type" json:"fileType"`
	Title       string    `db:"title" json:"title"`
	SharedBy    string    `db:"shared_by" json:"sharedBy"`
	AuthorEmail string    `db:"author_email" json:"authorEmail"`
	SharedAt    time.Time `db:"shared_at" json:"sharedAt"`
}

// ListSharedLibrary lists the school's shared materials, newest first.
func ListSharedLibrary(ctx context.Context, db *sqlx.DB, schoolID string, limit, offset int) ([]SharedLibraryItem, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items := []SharedLibraryItem{}
	err := db.SelectContext(ctx, &items, `
SELECT sm.id, sm.file_id, gf.file_type, gf.title, sm.shared_by, u.email AS author_email, sm.shared_at
FROM shared_materials sm
JOIN generated_files gf ON gf.id = sm.file_id
JOIN users u ON u.id = sm.shared_by
WHERE sm.school_id = $1
ORDER BY sm.shared_at DESC
LIMIT $2 OFFSET $3
`, schoolID, limit, offset)
	return items, err
}
