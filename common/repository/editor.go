package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/models"
)

// EditorRepository handles database operations for editors
type EditorRepository struct {
	db *db.DB
}

// NewEditorRepository creates a new editor repository
func NewEditorRepository(database *db.DB) *EditorRepository {
	return &EditorRepository{db: database}
}

// GetByID retrieves an editor by id
func (r *EditorRepository) GetByID(ctx context.Context, editorID int64) (*models.Editor, error) {
	query := `
		SELECT id, name
		FROM editor
		WHERE id = $1
	`

	editor := &models.Editor{}
	err := r.db.QueryRow(ctx, query, editorID).Scan(&editor.ID, &editor.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("editor %d not found", editorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get editor: %w", err)
	}

	return editor, nil
}

// Exists checks if an editor exists
func (r *EditorRepository) Exists(ctx context.Context, editorID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM editor WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, editorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check editor existence: %w", err)
	}

	return exists, nil
}
