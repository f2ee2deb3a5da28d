package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// validationError converts field and transition errors into client errors and
// passes anything else through.
func validationError(err error) error {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		return apperrors.NewValidationError(fieldErr.Error(), map[string]any{
			"field":  fieldErr.Field,
			"reason": string(fieldErr.Kind),
		})
	}
	var transitionErr *lifecycle.TransitionError
	if errors.As(err, &transitionErr) {
		return apperrors.NewConflict(transitionErr.Error(), map[string]any{
			"from":   string(transitionErr.From),
			"to":     string(transitionErr.To),
			"policy": transitionErr.Policy,
		})
	}
	return err
}

// Postgres SQLSTATE codes the services react to.
const (
	pgInvalidTextRepresentation = "22P02"
	pgUniqueViolation           = "23505"
)

// isMissingRow reports whether err means the referenced row does not exist. An id
// that is not a valid uuid cannot name a row either.
func isMissingRow(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// storeError maps a repository failure: missing rows become NOT_FOUND for resource,
// unique violations CONFLICT, everything else a PERSISTENCE_ERROR.
func storeError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if isMissingRow(err) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	if isUniqueViolation(err) {
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return apperrors.NewConflict(resource+" already exists", map[string]any{"constraint": pgErr.ConstraintName})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewPersistenceError(err)
}

func requireProfile(profile *domain.Profile) error {
	if profile == nil {
		return apperrors.NewUnauthorized("profile required")
	}
	return nil
}
