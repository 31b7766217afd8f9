// Package records implements the research-administration document store:
// project and person records with filtered lookups, an in-memory
// implementation for tests and a sqlite implementation for deployments.
package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Project statuses form a closed set; Status.Valid rejects anything else
// before a record is written.
type Status string

const (
	StatusPlanning  Status = "Planning"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusOnHold    Status = "On Hold"
)

// Valid reports whether s is one of the known project statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusCompleted, StatusOnHold:
		return true
	}
	return false
}

// Statuses lists the valid project statuses in display order.
func Statuses() []string {
	return []string{
		string(StatusPlanning),
		string(StatusActive),
		string(StatusCompleted),
		string(StatusOnHold),
	}
}

// Project is a sponsored-research project record. Dates are ISO-8601 strings
// (YYYY-MM-DD); HumanSubjects and AnimalSubjects are "yes" or "no".
type Project struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Status         Status   `json:"status"`
	Investigator   string   `json:"investigator"`
	Sponsor        string   `json:"sponsor"`
	Affiliation    string   `json:"affiliation"`
	Description    string   `json:"description,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	HumanSubjects  string   `json:"human_subjects,omitempty"`
	AnimalSubjects string   `json:"animal_subjects,omitempty"`
	AwardAmount    float64  `json:"award_amount,omitempty"`
	AwardNumber    string   `json:"award_number,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Person is a directory record for an investigator or administrator.
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Affiliation string `json:"affiliation,omitempty"`
	Role        string `json:"role,omitempty"`
}

// ProjectUpdate carries a partial project update; nil fields are untouched.
type ProjectUpdate struct {
	Title          *string   `json:"title,omitempty"`
	Status         *Status   `json:"status,omitempty"`
	Investigator   *string   `json:"investigator,omitempty"`
	Sponsor        *string   `json:"sponsor,omitempty"`
	Affiliation    *string   `json:"affiliation,omitempty"`
	Description    *string   `json:"description,omitempty"`
	StartDate      *string   `json:"start_date,omitempty"`
	EndDate        *string   `json:"end_date,omitempty"`
	HumanSubjects  *string   `json:"human_subjects,omitempty"`
	AnimalSubjects *string   `json:"animal_subjects,omitempty"`
	AwardAmount    *float64  `json:"award_amount,omitempty"`
	AwardNumber    *string   `json:"award_number,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
}

// ProjectFilter narrows ListProjects by exact (case-insensitive) equality on
// the populated fields.
type ProjectFilter struct {
	Status      string
	Affiliation string
	Sponsor     string
}

// PersonFilter narrows ListPeople by exact (case-insensitive) equality on the
// populated fields.
type PersonFilter struct {
	Role        string
	Affiliation string
}

// ErrNotFound reports a lookup that matched no record.
var ErrNotFound = errors.New("record not found")

// ErrConflict reports a create that collides with an existing record.
var ErrConflict = errors.New("record already exists")

// ValidationError reports a malformed record field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Store is the persistence contract for projects and people. Title and name
// lookups return all matches so callers can ask for clarification rather than
// picking a record arbitrarily.
type Store interface {
	CreateProject(ctx context.Context, p Project) (Project, error)
	GetProjectByID(ctx context.Context, id string) (Project, error)
	FindProjectsByTitle(ctx context.Context, title string) ([]Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]Project, error)
	UpdateProject(ctx context.Context, id string, u ProjectUpdate) (Project, error)

	CreatePerson(ctx context.Context, p Person) (Person, error)
	FindPeopleByName(ctx context.Context, name string) ([]Person, error)
	GetPersonByEmail(ctx context.Context, email string) (Person, error)
	ListPeople(ctx context.Context, f PersonFilter) ([]Person, error)
}

func sortProjects(projects []Project) {
	sort.Slice(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Title) < strings.ToLower(projects[j].Title)
	})
}

func sortPeople(people []Person) {
	sort.Slice(people, func(i, j int) bool {
		return strings.ToLower(people[i].Name) < strings.ToLower(people[j].Name)
	})
}

func validateProject(p Project) error {
	if p.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", p.Status)}
	}
	return nil
}

func applyUpdate(p Project, u ProjectUpdate) (Project, error) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Status != nil {
		if !u.Status.Valid() {
			return Project{}, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *u.Status)}
		}
		p.Status = *u.Status
	}
	if u.Investigator != nil {
		p.Investigator = *u.Investigator
	}
	if u.Sponsor != nil {
		p.Sponsor = *u.Sponsor
	}
	if u.Affiliation != nil {
		p.Affiliation = *u.Affiliation
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.StartDate != nil {
		p.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		p.EndDate = *u.EndDate
	}
	if u.HumanSubjects != nil {
		p.HumanSubjects = *u.HumanSubjects
	}
	if u.AnimalSubjects != nil {
		p.AnimalSubjects = *u.AnimalSubjects
	}
	if u.AwardAmount != nil {
		p.AwardAmount = *u.AwardAmount
	}
	if u.AwardNumber != nil {
		p.AwardNumber = *u.AwardNumber
	}
	if u.Tags != nil {
		p.Tags = append([]string(nil), (*u.Tags)...)
	}
	return p, nil
}
