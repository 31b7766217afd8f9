package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a sqlite-backed Store. Tags are stored as a JSON array.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) a sqlite-backed record store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	ddl := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			investigator TEXT NOT NULL DEFAULT '',
			sponsor TEXT NOT NULL DEFAULT '',
			affiliation TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL DEFAULT '',
			end_date TEXT NOT NULL DEFAULT '',
			human_subjects TEXT NOT NULL DEFAULT '',
			animal_subjects TEXT NOT NULL DEFAULT '',
			award_amount REAL NOT NULL DEFAULT 0,
			award_number TEXT NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_title ON projects(title COLLATE NOCASE);`,
		`CREATE TABLE IF NOT EXISTS people (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			affiliation TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_people_name ON people(name COLLATE NOCASE);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const projectColumns = `id, title, status, investigator, sponsor, affiliation, description,
	start_date, end_date, human_subjects, animal_subjects, award_amount, award_number, tags_json`

// CreateProject implements Store.
func (s *SQLiteStore) CreateProject(ctx context.Context, p Project) (Project, error) {
	if err := validateProject(p); err != nil {
		return Project{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return Project{}, fmt.Errorf("encode tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, string(p.Status), p.Investigator, p.Sponsor, p.Affiliation,
		p.Description, p.StartDate, p.EndDate, p.HumanSubjects, p.AnimalSubjects,
		p.AwardAmount, p.AwardNumber, string(tagsJSON),
	)
	if err != nil {
		if isConstraintError(err) {
			return Project{}, ErrConflict
		}
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

// GetProjectByID implements Store.
func (s *SQLiteStore) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// FindProjectsByTitle implements Store with case-insensitive exact matching.
func (s *SQLiteStore) FindProjectsByTitle(ctx context.Context, title string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE title = ? COLLATE NOCASE ORDER BY title`, title)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// ListProjects implements Store.
func (s *SQLiteStore) ListProjects(ctx context.Context, f ProjectFilter) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ? COLLATE NOCASE`
		args = append(args, f.Status)
	}
	if f.Affiliation != "" {
		query += ` AND affiliation = ? COLLATE NOCASE`
		args = append(args, f.Affiliation)
	}
	if f.Sponsor != "" {
		query += ` AND sponsor = ? COLLATE NOCASE`
		args = append(args, f.Sponsor)
	}
	query += ` ORDER BY title COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// UpdateProject implements Store via read-modify-write in a transaction.
func (s *SQLiteStore) UpdateProject(ctx context.Context, id string, u ProjectUpdate) (Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return Project{}, err
	}
	updated, err := applyUpdate(p, u)
	if err != nil {
		return Project{}, err
	}
	tagsJSON, err := json.Marshal(updated.Tags)
	if err != nil {
		return Project{}, fmt.Errorf("encode tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE projects SET title = ?, status = ?, investigator = ?, sponsor = ?,
			affiliation = ?, description = ?, start_date = ?, end_date = ?,
			human_subjects = ?, animal_subjects = ?, award_amount = ?,
			award_number = ?, tags_json = ?
		WHERE id = ?`,
		updated.Title, string(updated.Status), updated.Investigator, updated.Sponsor,
		updated.Affiliation, updated.Description, updated.StartDate, updated.EndDate,
		updated.HumanSubjects, updated.AnimalSubjects, updated.AwardAmount,
		updated.AwardNumber, string(tagsJSON), id,
	); err != nil {
		if isConstraintError(err) {
			return Project{}, ErrConflict
		}
		return Project{}, fmt.Errorf("update project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Project{}, err
	}
	return updated, nil
}

// CreatePerson implements Store.
func (s *SQLiteStore) CreatePerson(ctx context.Context, p Person) (Person, error) {
	if p.Name == "" {
		return Person{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Email != "" {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM people WHERE email = ? COLLATE NOCASE AND email != ''`,
			p.Email,
		).Scan(&count); err != nil {
			return Person{}, err
		}
		if count > 0 {
			return Person{}, ErrConflict
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO people (id, name, email, affiliation, role)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, p.Affiliation, p.Role,
	)
	if err != nil {
		if isConstraintError(err) {
			return Person{}, ErrConflict
		}
		return Person{}, fmt.Errorf("create person: %w", err)
	}
	return p, nil
}

// FindPeopleByName implements Store with case-insensitive exact matching.
func (s *SQLiteStore) FindPeopleByName(ctx context.Context, name string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, affiliation, role
		FROM people WHERE name = ? COLLATE NOCASE ORDER BY name`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPeople(rows)
}

// GetPersonByEmail implements Store. An empty email never matches records
// whose email field is unset.
func (s *SQLiteStore) GetPersonByEmail(ctx context.Context, email string) (Person, error) {
	if email == "" {
		return Person{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, affiliation, role
		FROM people WHERE email = ? COLLATE NOCASE AND email != ''`, email)
	var p Person
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Affiliation, &p.Role)
	if err == sql.ErrNoRows {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

// ListPeople implements Store.
func (s *SQLiteStore) ListPeople(ctx context.Context, f PersonFilter) ([]Person, error) {
	query := `SELECT id, name, email, affiliation, role FROM people WHERE 1=1`
	var args []any
	if f.Role != "" {
		query += ` AND role = ? COLLATE NOCASE`
		args = append(args, f.Role)
	}
	if f.Affiliation != "" {
		query += ` AND affiliation = ? COLLATE NOCASE`
		args = append(args, f.Affiliation)
	}
	query += ` ORDER BY name COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPeople(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var status, tagsJSON string
	err := row.Scan(
		&p.ID, &p.Title, &status, &p.Investigator, &p.Sponsor, &p.Affiliation,
		&p.Description, &p.StartDate, &p.EndDate, &p.HumanSubjects,
		&p.AnimalSubjects, &p.AwardAmount, &p.AwardNumber, &tagsJSON,
	)
	if err == sql.ErrNoRows {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, err
	}
	p.Status = Status(status)
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return Project{}, fmt.Errorf("decode tags: %w", err)
	}
	return p, nil
}

func scanProjects(rows *sql.Rows) ([]Project, error) {
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPeople(rows *sql.Rows) ([]Person, error) {
	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Affiliation, &p.Role); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint")
}
