package database

import (
	"github.com/lib/pq"
	"github.com/worktally/worktally-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict("record already exists")

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	default:
		return nil
	}
}

// mapCheckConstraint maps CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch pqErr.Constraint {
	case "time_records_payment_status_valid":
		return errors.Validation(map[string]string{
			"payment_status": "must be one of: pending, submitted, paid",
		})
	case "payroll_approvals_approval_valid":
		return errors.Validation(map[string]string{
			"approval": "must be one of: 0, 1, 2",
		})
	default:
		return errors.BadRequest("constraint violation: " + pqErr.Constraint)
	}
}
