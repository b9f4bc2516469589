package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// userColumns never includes password_hash; only FindByEmail reads it.
const userColumns = `id, first_name, last_name, email, role, profile_image, bio, phone_number,
	email_verified, is_active, metadata, created_at, updated_at, last_login_at`

// Store provides Postgres-backed persistence for users, campaigns and offers.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore runs migrations and opens a connection pool.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if err := Migrate(databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	metadata, err := encodeMetadata(user.Metadata)
	if err != nil {
		return models.User{}, err
	}
	query := `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, profile_image, bio,
			phone_number, email_verified, is_active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query,
		user.ID, user.FirstName, user.LastName, models.NormalizeEmail(user.Email), user.PasswordHash,
		string(user.Role), user.ProfileImage, user.Bio, user.PhoneNumber, user.EmailVerified,
		user.IsActive, metadata)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return created, nil
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	if !validID(id) {
		return models.User{}, storage.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user including the password hash.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`,
		models.NormalizeEmail(email))
	var user models.User
	var metadata []byte
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role, &user.ProfileImage,
		&user.Bio, &user.PhoneNumber, &user.EmailVerified, &user.IsActive, &metadata, &user.CreatedAt,
		&user.UpdatedAt, &user.LastLoginAt, &user.PasswordHash)
	if err != nil {
		return models.User{}, mapError(err)
	}
	user.Metadata, err = decodeMetadata(metadata)
	return user, err
}

// UpdateUser applies the set fields of patch and returns the stored row.
func (s *Store) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	if !validID(id) {
		return models.User{}, storage.ErrNotFound
	}
	if patch.Empty() {
		return s.GetUser(ctx, id)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.FirstName != nil {
		set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		set("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		set("email", models.NormalizeEmail(*patch.Email))
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.Role != nil {
		set("role", string(*patch.Role))
	}
	if patch.ProfileImage != nil {
		set("profile_image", *patch.ProfileImage)
	}
	if patch.Bio != nil {
		set("bio", *patch.Bio)
	}
	if patch.PhoneNumber != nil {
		set("phone_number", *patch.PhoneNumber)
	}
	if patch.EmailVerified != nil {
		set("email_verified", *patch.EmailVerified)
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}
	if patch.Metadata != nil {
		metadata, err := encodeMetadata(patch.Metadata)
		if err != nil {
			return models.User{}, err
		}
		set("metadata", metadata)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)
	updated, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return models.User{}, mapError(err)
	}
	return updated, nil
}

// DeleteUser removes a user and, through foreign keys, their campaigns and offers.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return storage.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteAllUsers empties the users table.
func (s *Store) DeleteAllUsers(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}

// TouchLogin records a successful login.
func (s *Store) TouchLogin(ctx context.Context, id string) error {
	if !validID(id) {
		return storage.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountUsers returns the number of user rows.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountByRole returns the number of users per role.
func (s *Store) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Role]int64)
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[models.Role(role)] = n
	}
	return counts, rows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var metadata []byte
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role, &user.ProfileImage,
		&user.Bio, &user.PhoneNumber, &user.EmailVerified, &user.IsActive, &metadata, &user.CreatedAt,
		&user.UpdatedAt, &user.LastLoginAt)
	if err != nil {
		return models.User{}, mapError(err)
	}
	user.Metadata, err = decodeMetadata(metadata)
	return user, err
}

func encodeMetadata(m map[string]any) (*string, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	out := string(b)
	return &out, nil
}

func decodeMetadata(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return storage.ErrAlreadyExists
		case "23503":
			return fmt.Errorf("%w: %s", storage.ErrNotFound, pgErr.ConstraintName)
		case "23514", "22003":
			// check violation or numeric overflow
			return fmt.Errorf("%w: %s", storage.ErrInvalidValue, pgErr.Message)
		}
	}
	return err
}
