package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "0b9d1c1e-5f7a-4a53-9f5e-8d9f1f0a2b3c"

var (
	insertQuery   = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*phone,\s*password,\s*first_name,\s*last_name,\s*profile,\s*preferences\).*RETURNING\s+id,\s*created_at,\s*updated_at$`
	selectByID    = `(?s)^SELECT\s+id,\s*username.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	selectByIdent = `(?s)^SELECT\s+id,\s*username.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+OR\s+username\s*=\s*lower\(\$1\)\s+OR\s+phone\s*=\s*\$1\s+LIMIT\s+1$`
	updateLogin   = `(?s)^UPDATE\s+users\s+SET\s+last_login\s*=\s*\$2,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`
)

var userRowColumns = []string{"id", "username", "email", "phone", "password", "first_name", "last_name",
	"profile", "preferences", "last_login", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func newCandidate() *models.User {
	return &models.User{
		Username:    " JohnDoe ",
		Email:       "john@example.com",
		Phone:       "+201234567890",
		Password:    "$2a$10$digest",
		FirstName:   "John",
		LastName:    "Doe",
		Preferences: models.DefaultPreferences(),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(insertQuery).
		WithArgs("johndoe", "john@example.com", "+201234567890", "$2a$10$digest", "John", "Doe",
			nil, `{"language":"en","darkMode":false}`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(testID, now, now))

	got, err := repo.Create(context.Background(), newCandidate())
	require.NoError(t, err)
	assert.Equal(t, testID, got.ID)
	assert.Equal(t, "johndoe", got.Username)
	assert.Equal(t, now, got.CreatedAt)
}

func TestCreate_WithProfile(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	u := newCandidate()
	u.Profile = &models.Profile{Bio: "dev", Address: &models.Address{City: "Cairo"}}

	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			`{"bio":"dev","address":{"city":"Cairo"},"totalFollowing":0}`, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(testID, now, now))

	_, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
}

func TestCreate_ConflictFromDetail(t *testing.T) {
	tests := []struct {
		name       string
		pgErr      *pgconn.PgError
		wantField  string
		wantValue  string
		wantErrMsg string
	}{
		{
			name:       "email",
			pgErr:      &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key", Detail: "Key (email)=(john@example.com) already exists."},
			wantField:  "email",
			wantValue:  "john@example.com",
			wantErrMsg: `email "john@example.com" already exists.`,
		},
		{
			name:      "username",
			pgErr:     &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key", Detail: "Key (username)=(johndoe) already exists."},
			wantField: "username",
			wantValue: "johndoe",
		},
		{
			name:      "phone without detail falls back to constraint",
			pgErr:     &pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"},
			wantField: "phone",
			wantValue: "+201234567890",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectQuery(insertQuery).WillReturnError(tt.pgErr)

			_, err := repo.Create(context.Background(), newCandidate())

			var ce *common.ConflictError
			require.True(t, errors.As(err, &ce), "want ConflictError, got %v", err)
			assert.Equal(t, tt.wantField, ce.Field)
			assert.Equal(t, tt.wantValue, ce.Value)
			if tt.wantErrMsg != "" {
				assert.EqualError(t, err, tt.wantErrMsg)
			}
		})
	}
}

func TestCreate_OtherPgErrorIsNotConflict(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(insertQuery).WillReturnError(&pgconn.PgError{Code: "23502", Message: "null value"})

	_, err := repo.Create(context.Background(), newCandidate())

	var ce *common.ConflictError
	assert.False(t, errors.As(err, &ce))
	assert.Regexp(t, regexp.MustCompile(`^db error: `), err.Error())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), newCandidate())
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func userRow(lastLogin any) *sqlmock.Rows {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return sqlmock.NewRows(userRowColumns).AddRow(
		testID, "johndoe", "john@example.com", "+201234567890", "$2a$10$digest", "John", "Doe",
		[]byte(`{"bio":"dev","totalFollowing":3}`), []byte(`{"language":"ar","darkMode":true}`),
		lastLogin, now, now,
	)
}

func TestFindByIdentifier_ByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(selectByID).WithArgs(testID).WillReturnRows(userRow(nil))

	got, err := repo.FindByIdentifier(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, got.ID)
	assert.Equal(t, "$2a$10$digest", got.Password)
	require.NotNil(t, got.Profile)
	assert.Equal(t, 3, got.Profile.TotalFollowing)
	assert.Equal(t, models.Preferences{Language: "ar", DarkMode: true}, got.Preferences)
	assert.Nil(t, got.LastLogin)
}

func TestFindByIdentifier_ByEmailUsernamePhone(t *testing.T) {
	for _, ident := range []string{"john@example.com", "JohnDoe", "+201234567890"} {
		t.Run(ident, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
			mock.ExpectQuery(selectByIdent).WithArgs(ident).WillReturnRows(userRow(at))

			got, err := repo.FindByIdentifier(context.Background(), ident)
			require.NoError(t, err)
			assert.Equal(t, "johndoe", got.Username)
			require.NotNil(t, got.LastLogin)
			assert.Equal(t, at, *got.LastLogin)
		})
	}
}

func TestFindByIdentifier_Idempotent(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(selectByIdent).WithArgs("johndoe").WillReturnRows(userRow(nil))
	mock.ExpectQuery(selectByIdent).WithArgs("johndoe").WillReturnRows(userRow(nil))

	a, err := repo.FindByIdentifier(context.Background(), "johndoe")
	require.NoError(t, err)
	b, err := repo.FindByIdentifier(context.Background(), "johndoe")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFindByIdentifier_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(selectByIdent).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIdentifier(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByIdentifier_NullProfile(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).AddRow(
		testID, "johndoe", "john@example.com", "+201234567890", "x", "John", "Doe",
		nil, nil, nil, now, now)
	mock.ExpectQuery(selectByID).WithArgs(testID).WillReturnRows(rows)

	got, err := repo.FindByIdentifier(context.Background(), testID)
	require.NoError(t, err)
	assert.Nil(t, got.Profile)
	assert.Equal(t, models.DefaultPreferences(), got.Preferences)
}

func TestFindByIdentifier_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(selectByID).WithArgs(testID).WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByIdentifier(context.Background(), testID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Regexp(t, `db error: .*conn reset`, err.Error())
}

func TestTouchLastLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectExec(updateLogin).WithArgs(testID, at).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.TouchLastLogin(context.Background(), testID, at))
}

func TestTouchLastLogin_Missing(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Now()

	mock.ExpectExec(updateLogin).WithArgs(testID, at).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.TouchLastLogin(context.Background(), testID, at), common.ErrorNotFound)
}
