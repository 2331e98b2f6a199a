package users

import (
	"errors"
	"regexp"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// detailPattern matches "Key (email)=(john@example.com) already exists."
var detailPattern = regexp.MustCompile(`^Key \(([a-z_]+)\)=\((.*)\) already exists\.?$`)

var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"users_phone_key":    "phone",
}

// conflictFromError converts a unique violation into a ConflictError. The
// field and value come from the server's detail message; when the detail is
// unavailable the constraint name picks the field and the value is taken
// from the rejected record.
func conflictFromError(err error, user *candidateValues) (*common.ConflictError, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil, false
	}

	if m := detailPattern.FindStringSubmatch(pgErr.Detail); m != nil {
		return &common.ConflictError{Field: m[1], Value: m[2]}, true
	}

	field, ok := constraintFields[pgErr.ConstraintName]
	if !ok {
		return nil, false
	}
	return &common.ConflictError{Field: field, Value: user.value(field)}, true
}

type candidateValues struct {
	username, email, phone string
}

func (c *candidateValues) value(field string) string {
	switch field {
	case "username":
		return c.username
	case "email":
		return c.email
	default:
		return c.phone
	}
}
