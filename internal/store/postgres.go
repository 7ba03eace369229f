package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/taskboard/internal/models"
)

// PostgresStore handles user and task CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and tasks tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL    PRIMARY KEY,
			name       VARCHAR(200) NOT NULL,
			email      VARCHAR(200) NOT NULL,
			password   VARCHAR(200) NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));
		CREATE TABLE IF NOT EXISTS tasks (
			id         BIGSERIAL    PRIMARY KEY,
			author_id  BIGINT       NOT NULL REFERENCES users(id),
			title      VARCHAR(250) NOT NULL,
			body       TEXT         NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS tasks_author_id_idx ON tasks (author_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, email, password, created_at`,
		name, email, passwordHash,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get user by email")
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "get user by id")
	}
	return &u, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// Tasks

const taskColumns = `t.id, t.author_id, u.name, t.title, t.body, t.created_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(&t.ID, &t.AuthorID, &t.AuthorName, &t.Title, &t.Body, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	out, err := scanTask(s.pool.QueryRow(ctx,
		`WITH t AS (
			INSERT INTO tasks (author_id, title, body)
			VALUES ($1, $2, $3)
			RETURNING id, author_id, title, body, created_at
		 )
		 SELECT `+taskColumns+` FROM t JOIN users u ON u.id = t.author_id`,
		t.AuthorID, t.Title, t.Body,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("task author %d: %w", t.AuthorID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks t JOIN users u ON u.id = t.author_id ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks t JOIN users u ON u.id = t.author_id WHERE t.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get task")
	}
	return t, nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, id int64, title, body string) (*models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`WITH t AS (
			UPDATE tasks SET title = $2, body = $3
			WHERE id = $1
			RETURNING id, author_id, title, body, created_at
		 )
		 SELECT `+taskColumns+` FROM t JOIN users u ON u.id = t.author_id`,
		id, title, body,
	))
	if err != nil {
		return nil, notFound(err, "update task")
	}
	return t, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete task %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// pg helpers

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
