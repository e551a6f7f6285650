package config

import (
	"strings"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

// newValidator returns a validator that knows the matchlevel tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("matchlevel", func(fl validator.FieldLevel) bool {
		return domain.MatchLevel(fl.Field().String()).Known()
	})
	return v
}

// Validate normalizes cfg in place and checks it against the struct tags.
func Validate(v *validator.Validate, cfg *domain.Config) error {
	id, err := NormalizeDatabaseID(cfg.DatabaseID)
	if err != nil {
		return err
	}
	cfg.DatabaseID = id

	for i := range cfg.DomainRules {
		cfg.DomainRules[i].Domain = strings.ToLower(strings.TrimSpace(cfg.DomainRules[i].Domain))
	}

	if err := v.Struct(cfg); err != nil {
		return zerr.Wrap(err, domain.ErrConfigInvalid.Error())
	}
	return nil
}

// NormalizeDatabaseID accepts a Notion database id with or without dashes, or a database URL
// ending in the id, and returns the dashed form. An empty id is returned unchanged.
func NormalizeDatabaseID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil
	}

	candidate := id
	if strings.Contains(candidate, "/") {
		candidate, _, _ = strings.Cut(candidate[strings.LastIndex(candidate, "/")+1:], "?")
		// Page URLs carry the title before the id: My-Database-<32 hex>.
		if len(candidate) > 32 {
			candidate = candidate[len(candidate)-32:]
		}
	}

	parsed, err := uuid.Parse(candidate)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidDatabaseID, err.Error()), "databaseId", id)
	}
	return parsed.String(), nil
}
