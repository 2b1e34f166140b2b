package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/domain"
)

const userColumns = `id, email, username, password_hash, google_id, is_admin,
	reset_token_hash, reset_token_expires_at, failed_login_attempts,
	account_locked_until, last_login_at, created_at, updated_at`

// UsersRepository handles user persistence.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// Create creates a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, google_id, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.GoogleID,
		domain.FormatAdminFlag(user.IsAdmin), user.CreatedAt, user.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err, "users_email_key"):
		return domain.ErrDuplicateEmail
	case isUniqueViolation(err, "users_google_id_key"):
		return domain.ErrGoogleIDTaken
	case err != nil:
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by normalised email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByGoogleID retrieves a user by linked Google subject.
func (r *UsersRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

// ExistsByEmail checks if a user with the given email exists.
func (r *UsersRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// LinkGoogleID attaches a Google subject to an existing user.
func (r *UsersRepository) LinkGoogleID(ctx context.Context, userID uuid.UUID, googleID string) error {
	query := `
		UPDATE users
		SET google_id = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, googleID)
	if isUniqueViolation(err, "users_google_id_key") {
		return domain.ErrGoogleIDTaken
	}
	if err != nil {
		return fmt.Errorf("link google id: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// RecordFailedLogin increments the failed attempt counter in one statement
// and sets the lock when the new count reaches maxAttempts. It returns the
// counter and lock as stored after the update.
func (r *UsersRepository) RecordFailedLogin(ctx context.Context, userID uuid.UUID, maxAttempts int, lockUntil time.Time) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    account_locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN $3
		        ELSE account_locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts, account_locked_until
	`
	var (
		attempts    int
		lockedUntil *time.Time
	)
	err := r.db.QueryRowContext(ctx, query, userID, maxAttempts, lockUntil).Scan(&attempts, &lockedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("record failed login: %w", err)
	}
	return attempts, lockedUntil, nil
}

// RecordSuccessfulLogin zeroes the counter, clears the lock and stamps last_login_at.
func (r *UsersRepository) RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0,
		    account_locked_until = NULL,
		    last_login_at = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// SetResetToken stores the hash of a reset token, replacing any previous one.
func (r *UsersRepository) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// ConsumeResetToken sets a new password for the user holding an unexpired
// token and clears the token, counter and lock in the same statement.
// A token can be consumed at most once.
func (r *UsersRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uuid.UUID, error) {
	query := `
		UPDATE users
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL,
		    failed_login_attempts = 0,
		    account_locked_until = NULL,
		    updated_at = $3
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $3
		RETURNING id
	`
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, tokenHash, passwordHash, now).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}
	return id, nil
}

// UpdatePassword replaces the password hash.
func (r *UsersRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var adminFlag *string
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.GoogleID, &adminFlag,
		&user.ResetTokenHash, &user.ResetTokenExpiresAt, &user.FailedLoginAttempts,
		&user.AccountLockedUntil, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.IsAdmin = domain.ParseAdminFlag(adminFlag)
	return user, nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
