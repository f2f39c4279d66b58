package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"rehabit/internal/models"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when creating a user with an email that is
// already registered.
var ErrEmailTaken = errors.New("email already registered")

// Store persists users and their activity log in an embedded DuckDB
// database. Activities are immutable once logged; the store only ever
// creates and reads them.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. An empty path opens an
// in-memory database, which is what the tests use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS users_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS activities_id_seq`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
			name VARCHAR NOT NULL,
			email VARCHAR NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGINT PRIMARY KEY DEFAULT nextval('activities_id_seq'),
			user_id BIGINT NOT NULL,
			ts TIMESTAMP NOT NULL,
			activity_type VARCHAR NOT NULL,
			duration INTEGER NOT NULL,
			productivity_score INTEGER NOT NULL,
			focus_level VARCHAR NOT NULL,
			notes VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database availability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser registers a new user. The email must be unused.
func (s *Store) CreateUser(ctx context.Context, name, email string) (models.User, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return models.User{}, ErrEmailTaken
	}

	user := models.User{Name: name, Email: email, CreatedAt: time.Now().UTC()}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, created_at) VALUES (?, ?, ?) RETURNING id`,
		user.Name, user.Email, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// LogActivity stores a new activity record for an existing user and
// returns it with its assigned id.
func (s *Store) LogActivity(ctx context.Context, rec models.ActivityRecord) (models.ActivityRecord, error) {
	if _, err := s.GetUser(ctx, rec.UserID); err != nil {
		return models.ActivityRecord{}, err
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO activities (user_id, ts, activity_type, duration, productivity_score, focus_level, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		rec.UserID, rec.Timestamp, string(rec.ActivityType), rec.DurationMinutes,
		rec.ProductivityScore, string(rec.FocusLevel), rec.Notes).Scan(&rec.ID)
	if err != nil {
		return models.ActivityRecord{}, fmt.Errorf("failed to log activity: %w", err)
	}
	return rec, nil
}

// RecentActivities returns up to limit of the user's newest activities,
// newest first.
func (s *Store) RecentActivities(ctx context.Context, userID int64, limit int) ([]models.ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, ts, activity_type, duration, productivity_score, focus_level, notes
		 FROM activities WHERE user_id = ? ORDER BY ts DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()
	return scanActivities(rows)
}

// History returns the user's full activity log ordered by time
// ascending, the shape the analytics pipeline trains and infers on.
func (s *Store) History(ctx context.Context, userID int64) ([]models.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, ts, activity_type, duration, productivity_score, focus_level, notes
		 FROM activities WHERE user_id = ? ORDER BY ts ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()
	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	for rows.Next() {
		var rec models.ActivityRecord
		var notes sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Timestamp, &rec.ActivityType,
			&rec.DurationMinutes, &rec.ProductivityScore, &rec.FocusLevel, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.Notes = notes.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return records, nil
}
