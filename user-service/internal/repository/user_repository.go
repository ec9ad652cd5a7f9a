package repository

import (
	"context"
	"database/sql"

	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/models"
	"github.com/eaglemart/platform/shared/store"
)

const (
	userNotFound   = "User not found"
	userConflict   = "User with these credentials already exists"
	userColumns    = `id, username, email, password_hash, phone_number, address, created_at, updated_at`
	activeUserOnly = `deleted_at IS NULL`
)

// UserRepository reads and writes the users table. Deleted users are kept
// with deleted_at set and are invisible to every method.
type UserRepository struct {
	db store.DBTX
}

func NewUserRepository(db store.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx store.DBTX) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		nullString(user.PhoneNumber), nullString(user.Address),
		user.CreatedAt, user.UpdatedAt,
	)
	return classifyWrite(err)
}

// CredentialsTaken reports whether an active user other than excludeID
// already holds username or email.
func (r *UserRepository) CredentialsTaken(ctx context.Context, username, email, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE (username = $1 OR lower(email) = lower($2))
			  AND id <> $3 AND ` + activeUserOnly + `
		)
	`
	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, email, excludeID).Scan(&taken); err != nil {
		return false, errs.Wrap(errs.ErrPersistence, "", err)
	}
	return taken, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND ` + activeUserOnly
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, userNotFound)
	}
	return user, nil
}

// GetByUsername is used by login and includes the password hash.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND ` + activeUserOnly
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, store.Classify(err, userNotFound)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, phone_number = $4, address = $5, updated_at = $6
		WHERE id = $1 AND ` + activeUserOnly + `
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email,
		nullString(user.PhoneNumber), nullString(user.Address),
		user.UpdatedAt,
	).Scan(&user.CreatedAt)
	if err != nil {
		return classifyWrite(err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return nil
}

// SoftDelete marks the user deleted and returns the row as it was.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) (*models.User, error) {
	query := `
		UPDATE users SET deleted_at = NOW()
		WHERE id = $1 AND ` + activeUserOnly + `
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, store.Classify(err, userNotFound)
	}
	return user, nil
}

func classifyWrite(err error) error {
	if store.IsUniqueViolation(err, "") {
		return errs.Wrap(errs.ErrConflict, userConflict, err)
	}
	return store.Classify(err, userNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var phone, address sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &phone, &address, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.PhoneNumber = phone.String
	u.Address = address.String
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
