package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gelson35/GestaoSaude-backend/internal/platform/apierr"
)

// SQLSTATE codes the API translates.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeStringTooLong       = "22001"
	codeInvalidText         = "22P02"
)

// Classify translates pgx and Postgres errors into apierr values. Errors it
// does not recognise are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apierr.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeForeignKeyViolation:
		// Deleting a row that is still referenced vs. writing a reference to a
		// row that does not exist.
		if strings.Contains(pgErr.Detail, "still referenced") {
			return fmt.Errorf("%w: %s", apierr.ErrProtected, pgErr.TableName)
		}
		verr := &apierr.ValidationError{}
		for _, col := range detailColumns(pgErr.Detail) {
			verr.Add(fieldName(col), "referenced record does not exist")
		}
		if verr.Empty() {
			verr.Add("non_field_errors", "referenced record does not exist")
		}
		return verr
	case codeUniqueViolation:
		cols := detailColumns(pgErr.Detail)
		fields := make([]string, 0, len(cols))
		for _, col := range cols {
			fields = append(fields, fieldName(col))
		}
		return &apierr.ConflictError{Fields: fields}
	case codeCheckViolation, codeNotNullViolation, codeStringTooLong, codeInvalidText:
		field := pgErr.ColumnName
		if field == "" {
			field = "non_field_errors"
		}
		return apierr.NewValidationError(fieldName(field), pgErr.Message)
	}
	return err
}

// detailColumns extracts the column list from a Postgres detail message such
// as `Key (vtr_sigla, data_plantao)=(USA-01, 2024-01-01) already exists.`
func detailColumns(detail string) []string {
	start := strings.Index(detail, "Key (")
	if start < 0 {
		return nil
	}
	rest := detail[start+len("Key ("):]
	end := strings.Index(rest, ")=")
	if end < 0 {
		return nil
	}
	parts := strings.Split(rest[:end], ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// fieldName maps a foreign-key column (equipe_id) to its API field (equipe).
func fieldName(column string) string {
	return strings.TrimSuffix(column, "_id")
}
