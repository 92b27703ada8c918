package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/biolink/internal/models"
	"github.com/codr1/biolink/internal/themes"
)

var (
	_ themes.Repository    = (*Queries)(nil)
	_ themes.DefaultFinder = (*Queries)(nil)
)

const themeColumns = `id, name, description, owner_id, is_system, is_default, tokens, created_at, updated_at`

const findThemeByID = `SELECT ` + themeColumns + ` FROM themes WHERE id = ?`

func (q *Queries) FindByID(ctx context.Context, id string) (models.Theme, error) {
	theme, err := scanTheme(q.db.QueryRowContext(ctx, findThemeByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Theme{}, themes.ErrNoRows
		}
		return models.Theme{}, fmt.Errorf("find theme %s: %w", id, err)
	}
	return theme, nil
}

const findThemesByOwnerOrSystem = `SELECT ` + themeColumns + ` FROM themes
WHERE is_system = 1 OR owner_id = ?
ORDER BY is_system DESC, name COLLATE NOCASE, id`

func (q *Queries) FindByOwnerOrSystem(ctx context.Context, ownerID string) ([]models.Theme, error) {
	rows, err := q.db.QueryContext(ctx, findThemesByOwnerOrSystem, nullString(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var results []models.Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		results = append(results, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	return results, nil
}

const insertTheme = `INSERT INTO themes (` + themeColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) Insert(ctx context.Context, theme models.Theme) error {
	tokens, err := encodeTokens(theme.Tokens)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, insertTheme,
		theme.ID,
		theme.Name,
		nullStringPtr(theme.Description),
		nullStringPtr(theme.OwnerID),
		theme.IsSystem,
		theme.IsDefault,
		tokens,
		theme.CreatedAt.UTC(),
		theme.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert theme %s: %w", theme.ID, err)
	}
	return nil
}

const updateOwnedTheme = `UPDATE themes
SET name = ?, description = ?, tokens = ?, updated_at = ?
WHERE id = ? AND owner_id = ? AND is_system = 0`

func (q *Queries) UpdateByID(ctx context.Context, theme models.Theme, ownerID string) error {
	tokens, err := encodeTokens(theme.Tokens)
	if err != nil {
		return err
	}
	result, err := q.db.ExecContext(ctx, updateOwnedTheme,
		theme.Name,
		nullStringPtr(theme.Description),
		tokens,
		theme.UpdatedAt.UTC(),
		theme.ID,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("update theme %s: %w", theme.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update theme %s: %w", theme.ID, err)
	}
	if affected == 0 {
		return themes.ErrNoRows
	}
	return nil
}

const deleteOwnedTheme = `DELETE FROM themes WHERE id = ? AND owner_id = ? AND is_system = 0`

func (q *Queries) DeleteByID(ctx context.Context, id string, ownerID string) (bool, error) {
	result, err := q.db.ExecContext(ctx, deleteOwnedTheme, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete theme %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete theme %s: %w", id, err)
	}
	return affected > 0, nil
}

const listSystemThemes = `SELECT ` + themeColumns + ` FROM themes
WHERE is_system = 1
ORDER BY name COLLATE NOCASE`

func (q *Queries) ListSystemThemes(ctx context.Context) ([]models.Theme, error) {
	rows, err := q.db.QueryContext(ctx, listSystemThemes)
	if err != nil {
		return nil, fmt.Errorf("list system themes: %w", err)
	}
	defer rows.Close()

	var results []models.Theme
	for rows.Next() {
		theme, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		results = append(results, theme)
	}
	return results, rows.Err()
}

// StaleSystemThemes returns the stored system themes that are not in catalog.
func (q *Queries) StaleSystemThemes(ctx context.Context, catalog []models.Theme) ([]models.Theme, error) {
	stored, err := q.ListSystemThemes(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(catalog))
	for _, theme := range catalog {
		known[theme.ID] = true
	}
	var stale []models.Theme
	for _, theme := range stored {
		if !known[theme.ID] {
			stale = append(stale, theme)
		}
	}
	return stale, nil
}

const getDefaultSystemTheme = `SELECT ` + themeColumns + ` FROM themes
WHERE is_system = 1 AND is_default = 1`

// GetDefaultSystemTheme returns the system theme new pages start with.
func (q *Queries) GetDefaultSystemTheme(ctx context.Context) (models.Theme, error) {
	theme, err := scanTheme(q.db.QueryRowContext(ctx, getDefaultSystemTheme))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Theme{}, themes.ErrNoRows
		}
		return models.Theme{}, fmt.Errorf("get default theme: %w", err)
	}
	return theme, nil
}

const clearSystemDefault = `UPDATE themes SET is_default = 0 WHERE is_system = 1 AND is_default = 1`

func (q *Queries) ClearSystemDefault(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, clearSystemDefault); err != nil {
		return fmt.Errorf("clear default theme: %w", err)
	}
	return nil
}

const upsertSystemTheme = `INSERT INTO themes (` + themeColumns + `)
VALUES (?, ?, ?, NULL, 1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    is_default = excluded.is_default,
    tokens = excluded.tokens,
    updated_at = excluded.updated_at`

// UpsertSystemTheme inserts or refreshes a system theme, keeping its
// original created_at.
func (q *Queries) UpsertSystemTheme(ctx context.Context, theme models.Theme) error {
	tokens, err := encodeTokens(theme.Tokens)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, upsertSystemTheme,
		theme.ID,
		theme.Name,
		nullStringPtr(theme.Description),
		theme.IsDefault,
		tokens,
		theme.CreatedAt.UTC(),
		theme.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert system theme %q: %w", theme.Name, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTheme(row rowScanner) (models.Theme, error) {
	var (
		theme       models.Theme
		description sql.NullString
		ownerID     sql.NullString
		tokens      string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(
		&theme.ID,
		&theme.Name,
		&description,
		&ownerID,
		&theme.IsSystem,
		&theme.IsDefault,
		&tokens,
		&createdAt,
		&updatedAt,
	); err != nil {
		return models.Theme{}, err
	}
	if description.Valid {
		value := description.String
		theme.Description = &value
	}
	if ownerID.Valid {
		value := ownerID.String
		theme.OwnerID = &value
	}
	if err := json.Unmarshal([]byte(tokens), &theme.Tokens); err != nil {
		return models.Theme{}, fmt.Errorf("decode tokens of theme %s: %w", theme.ID, err)
	}
	theme.CreatedAt = createdAt.UTC()
	theme.UpdatedAt = updatedAt.UTC()
	return theme, nil
}

func encodeTokens(tokens models.Tokens) (string, error) {
	encoded, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("encode tokens: %w", err)
	}
	return string(encoded), nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullStringPtr(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

const countThemes = `SELECT
    COALESCE(SUM(CASE WHEN is_system = 1 THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN is_system = 0 THEN 1 ELSE 0 END), 0)
FROM themes`

// CountThemes returns the number of system and user-owned themes.
func (q *Queries) CountThemes(ctx context.Context) (system, owned int, err error) {
	if err := q.db.QueryRowContext(ctx, countThemes).Scan(&system, &owned); err != nil {
		return 0, 0, fmt.Errorf("count themes: %w", err)
	}
	return system, owned, nil
}
