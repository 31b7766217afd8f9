package records

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore is a mutex-guarded in-process Store. Records are copied on
// the way in and out.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects map[string]Project
	people   map[string]Person
}

// NewInMemoryStore creates an empty in-memory record store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		projects: map[string]Project{},
		people:   map[string]Person{},
	}
}

// CreateProject implements Store. A missing ID is generated; an existing ID
// or an existing title (case-insensitive) is a conflict.
func (s *InMemoryStore) CreateProject(_ context.Context, p Project) (Project, error) {
	if err := validateProject(p); err != nil {
		return Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.projects[p.ID]; exists {
		return Project{}, ErrConflict
	}
	for _, existing := range s.projects {
		if strings.EqualFold(existing.Title, p.Title) {
			return Project{}, ErrConflict
		}
	}
	p.Tags = append([]string(nil), p.Tags...)
	s.projects[p.ID] = p
	return p, nil
}

// GetProjectByID implements Store.
func (s *InMemoryStore) GetProjectByID(_ context.Context, id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

// FindProjectsByTitle implements Store with case-insensitive exact matching.
func (s *InMemoryStore) FindProjectsByTitle(_ context.Context, title string) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []Project
	for _, p := range s.projects {
		if strings.EqualFold(p.Title, title) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// ListProjects implements Store.
func (s *InMemoryStore) ListProjects(_ context.Context, f ProjectFilter) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Project
	for _, p := range s.projects {
		if f.Status != "" && !strings.EqualFold(string(p.Status), f.Status) {
			continue
		}
		if f.Affiliation != "" && !strings.EqualFold(p.Affiliation, f.Affiliation) {
			continue
		}
		if f.Sponsor != "" && !strings.EqualFold(p.Sponsor, f.Sponsor) {
			continue
		}
		out = append(out, p)
	}
	sortProjects(out)
	return out, nil
}

// UpdateProject implements Store.
func (s *InMemoryStore) UpdateProject(_ context.Context, id string, u ProjectUpdate) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	updated, err := applyUpdate(p, u)
	if err != nil {
		return Project{}, err
	}
	s.projects[id] = updated
	return updated, nil
}

// CreatePerson implements Store. A duplicate email (case-insensitive) is a
// conflict.
func (s *InMemoryStore) CreatePerson(_ context.Context, p Person) (Person, error) {
	if p.Name == "" {
		return Person{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.people[p.ID]; exists {
		return Person{}, ErrConflict
	}
	if p.Email != "" {
		for _, existing := range s.people {
			if strings.EqualFold(existing.Email, p.Email) {
				return Person{}, ErrConflict
			}
		}
	}
	s.people[p.ID] = p
	return p, nil
}

// FindPeopleByName implements Store with case-insensitive exact matching.
// Returning every match lets callers distinguish none, one and many.
func (s *InMemoryStore) FindPeopleByName(_ context.Context, name string) ([]Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []Person
	for _, p := range s.people {
		if strings.EqualFold(p.Name, name) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// GetPersonByEmail implements Store. Emails are unique; an empty email never
// matches records whose email field is unset.
func (s *InMemoryStore) GetPersonByEmail(_ context.Context, email string) (Person, error) {
	if email == "" {
		return Person{}, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.people {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return Person{}, ErrNotFound
}

// ListPeople implements Store.
func (s *InMemoryStore) ListPeople(_ context.Context, f PersonFilter) ([]Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Person
	for _, p := range s.people {
		if f.Role != "" && !strings.EqualFold(p.Role, f.Role) {
			continue
		}
		if f.Affiliation != "" && !strings.EqualFold(p.Affiliation, f.Affiliation) {
			continue
		}
		out = append(out, p)
	}
	sortPeople(out)
	return out, nil
}
