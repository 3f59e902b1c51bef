package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groupbuy-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Sentinel errors the service layer classifies into its own kinds.
var (
	ErrNotFound        = errors.New("not found")
	ErrDealNotActive   = errors.New("deal is not active")
	ErrDealNotApproved = errors.New("deal is not approved")
	ErrDealEnded       = errors.New("deal has ended")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateUser inserts a new user profile
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, full_name, role, is_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, user, query,
		user.Email, user.PasswordHash, user.FullName, user.Role, user.IsVerified)
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers retrieves users, optionally filtered by role
func (s *Store) GetUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if role != "" {
		err := s.db.SelectContext(ctx, &users,
			"SELECT * FROM users WHERE role = $1 ORDER BY created_at DESC", role)
		return users, err
	}
	err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY created_at DESC")
	return users, err
}

// SetUserVerification flips the admin-owned verification flag
func (s *Store) SetUserVerification(ctx context.Context, userID int64, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_verified = $1 WHERE id = $2", verified, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// CreateCategory inserts a new category
func (s *Store) CreateCategory(ctx context.Context, cat *models.Category) error {
	query := `
		INSERT INTO categories (name, name_hindi, icon)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, cat, query, cat.Name, cat.NameHindi, cat.Icon)
}

// GetCategories retrieves all categories ordered by name
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.SelectContext(ctx, &cats, "SELECT * FROM categories ORDER BY name")
	return cats, err
}

// UpdateCategory updates a category's fields
func (s *Store) UpdateCategory(ctx context.Context, cat *models.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = $1, name_hindi = $2, icon = $3 WHERE id = $4",
		cat.Name, cat.NameHindi, cat.Icon, cat.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", cat.ID, ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountByTable returns a row count for dashboard metrics
func (s *Store) CountByTable(ctx context.Context, table string) (int64, error) {
	// table names come from a fixed internal list, never user input
	var count int64
	err := s.db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	return count, err
}

// CountPendingDeals returns deals awaiting admin approval
func (s *Store) CountPendingDeals(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM deals WHERE is_approved = FALSE AND status NOT IN ('rejected', 'expired')")
	return count, err
}

// CountUnverifiedUsers returns users awaiting admin verification by role
func (s *Store) CountUnverifiedUsers(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM users WHERE role = $1 AND is_verified = FALSE", role)
	return count, err
}
