package db

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/codr1/biolink/internal/models"
)

//go:embed system_themes.yaml
var systemThemesYAML []byte

// systemThemeNamespace derives stable ids so a system theme keeps its id
// across databases and reseeds.
var systemThemeNamespace = uuid.MustParse("6f1c2b9e-3d4a-5e8f-9a0b-1c2d3e4f5a6b")

type systemThemeFile struct {
	Themes []systemThemeEntry `yaml:"themes"`
}

type systemThemeEntry struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Default     bool              `yaml:"default"`
	Tokens      map[string]string `yaml:"tokens"`
}

// SystemThemeID returns the id a system theme with this name is stored under.
func SystemThemeID(name string) string {
	return uuid.NewSHA1(systemThemeNamespace, []byte(name)).String()
}

// ParseSystemThemes decodes the embedded system theme catalog in file order.
func ParseSystemThemes() ([]models.Theme, error) {
	return parseSystemThemes(systemThemesYAML)
}

func parseSystemThemes(data []byte) ([]models.Theme, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file systemThemeFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse system themes: %w", err)
	}
	if len(file.Themes) == 0 {
		return nil, fmt.Errorf("system themes file defines no themes")
	}

	themes := make([]models.Theme, 0, len(file.Themes))
	seen := make(map[string]bool, len(file.Themes))
	defaultName := ""
	for i, entry := range file.Themes {
		name := strings.TrimSpace(entry.Name)
		if err := models.ValidateName(name); err != nil {
			return nil, fmt.Errorf("system theme %d: %w", i+1, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate system theme %q", name)
		}
		seen[name] = true

		if entry.Default {
			if defaultName != "" {
				return nil, fmt.Errorf("multiple default themes: %q and %q", defaultName, name)
			}
			defaultName = name
		}

		for key := range entry.Tokens {
			if !models.IsKnownToken(key) {
				return nil, fmt.Errorf("system theme %q: unknown token %s", name, key)
			}
		}

		input := models.ThemeInput{Name: name, Tokens: models.ParseTokens(entry.Tokens)}
		if description := strings.TrimSpace(entry.Description); description != "" {
			input.Description = &description
		}
		if err := input.Validate(); err != nil {
			return nil, fmt.Errorf("invalid system theme %q: %w", name, err)
		}

		themes = append(themes, models.Theme{
			ID:          SystemThemeID(name),
			Name:        name,
			Description: input.Description,
			IsSystem:    true,
			IsDefault:   entry.Default,
			Tokens:      input.Tokens.Compact(),
		})
	}
	if defaultName == "" {
		return nil, fmt.Errorf("system themes file marks no theme as default")
	}
	return themes, nil
}

// SeedSystemThemes writes the embedded catalog into the database. It is safe
// to run on every start: existing system themes are refreshed in place and
// system themes no longer in the catalog are left alone.
func (db *DB) SeedSystemThemes(ctx context.Context) error {
	catalog, err := ParseSystemThemes()
	if err != nil {
		return err
	}
	return db.seedSystemThemes(ctx, catalog, time.Now().UTC())
}

func (db *DB) seedSystemThemes(ctx context.Context, catalog []models.Theme, now time.Time) error {
	var stale []models.Theme
	err := db.RunInTx(ctx, func(tx *DB) error {
		if err := tx.Queries.ClearSystemDefault(ctx); err != nil {
			return err
		}
		for _, theme := range catalog {
			theme.CreatedAt = now
			theme.UpdatedAt = now
			if err := tx.Queries.UpsertSystemTheme(ctx, theme); err != nil {
				return err
			}
		}
		var err error
		stale, err = tx.Queries.StaleSystemThemes(ctx, catalog)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed system themes: %w", err)
	}

	logger := log.Ctx(ctx)
	for _, theme := range stale {
		logger.Warn().Str("theme_id", theme.ID).Str("name", theme.Name).Msg("System theme is no longer in the catalog")
	}
	logger.Info().Int("count", len(catalog)).Int("stale", len(stale)).Msg("Seeded system themes")
	return nil
}
