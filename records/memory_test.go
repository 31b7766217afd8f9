package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() Project {
	return Project{
		Title:        "Deep Sea Microbiome Atlas",
		Status:       StatusActive,
		Investigator: "Tyler Johnson",
		Sponsor:      "National Science Foundation",
		Affiliation:  "College of Engineering",
		AwardAmount:  450000,
		Tags:         []string{"biology", "ocean"},
	}
}

func TestInMemory_CreateAndGetProject(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	created, err := store.CreateProject(ctx, sampleProject())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "missing id is generated")

	got, err := store.GetProjectByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)

	_, err = store.GetProjectByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemory_CreateProjectValidation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	// Malformed records surface as *ValidationError so callers can tell an
	// argument defect from a store failure.
	p := sampleProject()
	p.Title = ""
	_, err := store.CreateProject(ctx, p)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)

	p = sampleProject()
	p.Status = "Archived"
	_, err = store.CreateProject(ctx, p)
	vErr = nil
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestInMemory_CreateProjectConflicts(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	created, err := store.CreateProject(ctx, sampleProject())
	require.NoError(t, err)

	dup := sampleProject()
	dup.ID = created.ID
	dup.Title = "Other Title"
	_, err = store.CreateProject(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)

	sameTitle := sampleProject()
	sameTitle.Title = "deep sea microbiome atlas" // case-insensitive duplicate
	_, err = store.CreateProject(ctx, sameTitle)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestInMemory_FindProjectsByTitle(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	created, err := store.CreateProject(ctx, sampleProject())
	require.NoError(t, err)

	matches, err := store.FindProjectsByTitle(ctx, "DEEP SEA MICROBIOME ATLAS")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, created.ID, matches[0].ID)

	matches, err = store.FindProjectsByTitle(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestInMemory_ListProjectsFilters(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	a := sampleProject()
	_, err := store.CreateProject(ctx, a)
	require.NoError(t, err)

	b := sampleProject()
	b.Title = "Urban Heat Mapping"
	b.Status = StatusPlanning
	b.Sponsor = "National Institutes of Health"
	_, err = store.CreateProject(ctx, b)
	require.NoError(t, err)

	all, err := store.ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Deep Sea Microbiome Atlas", all[0].Title, "sorted by title")

	active, err := store.ListProjects(ctx, ProjectFilter{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, a.Title, active[0].Title)

	nih, err := store.ListProjects(ctx, ProjectFilter{Sponsor: "National Institutes of Health"})
	require.NoError(t, err)
	require.Len(t, nih, 1)
	assert.Equal(t, b.Title, nih[0].Title)
}

func TestInMemory_UpdateProjectPartial(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	created, err := store.CreateProject(ctx, sampleProject())
	require.NoError(t, err)

	completed := StatusCompleted
	amount := 500000.0
	updated, err := store.UpdateProject(ctx, created.ID, ProjectUpdate{
		Status:      &completed,
		AwardAmount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, 500000.0, updated.AwardAmount)
	assert.Equal(t, created.Investigator, updated.Investigator, "untouched fields survive")

	bad := Status("Archived")
	_, err = store.UpdateProject(ctx, created.ID, ProjectUpdate{Status: &bad})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)

	_, err = store.UpdateProject(ctx, "missing", ProjectUpdate{Status: &completed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemory_People(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	alice, err := store.CreatePerson(ctx, Person{
		Name: "Alice Chen", Email: "alice@example.edu",
		Affiliation: "College of Engineering", Role: "Investigator",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)

	// Duplicate name is allowed; duplicate email is not.
	_, err = store.CreatePerson(ctx, Person{Name: "Alice Chen", Email: "alice2@example.edu"})
	require.NoError(t, err)
	_, err = store.CreatePerson(ctx, Person{Name: "Third Alice", Email: "ALICE@example.edu"})
	assert.ErrorIs(t, err, ErrConflict)

	matches, err := store.FindPeopleByName(ctx, "alice chen")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	byEmail, err := store.GetPersonByEmail(ctx, "alice@example.edu")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = store.GetPersonByEmail(ctx, "nobody@example.edu")
	assert.ErrorIs(t, err, ErrNotFound)

	// An empty email must not match people whose email is unset.
	_, err = store.CreatePerson(ctx, Person{Name: "No Email"})
	require.NoError(t, err)
	_, err = store.GetPersonByEmail(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	investigators, err := store.ListPeople(ctx, PersonFilter{Role: "investigator"})
	require.NoError(t, err)
	assert.Len(t, investigators, 1)
}
