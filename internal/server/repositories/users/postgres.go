package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/dbx"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, username, email, phone, password, first_name, last_name,
		profile, preferences, last_login, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.Username = models.NormalizeUsername(user.Username)

	profile, err := marshalNullable(user.Profile)
	if err != nil {
		return nil, err
	}
	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}

	query :=
		`INSERT INTO users (username, email, phone, password, first_name, last_name, profile, preferences)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Phone, user.Password,
		user.FirstName, user.LastName, profile, string(prefs),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		candidate := &candidateValues{username: user.Username, email: user.Email, phone: user.Phone}
		if conflict, ok := conflictFromError(err, candidate); ok {
			return nil, conflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// FindByIdentifier looks the identifier up by primary key when it parses as
// a UUID and by email, username or phone otherwise.
func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var row *sql.Row
	if _, err := uuid.Parse(identifier); err == nil {
		row = r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, identifier)
	} else {
		row = r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users
			 WHERE email = $1 OR username = lower($1) OR phone = $1
			 LIMIT 1`, identifier)
	}

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		profile   []byte
		prefs     []byte
		lastLogin sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.Password,
		&u.FirstName, &u.LastName, &profile, &prefs, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(profile) > 0 {
		u.Profile = &models.Profile{}
		if err := json.Unmarshal(profile, u.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}

	u.Preferences = models.DefaultPreferences()
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}

	return &u, nil
}

func marshalNullable(v *models.Profile) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return string(b), nil
}
