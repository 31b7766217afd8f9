package assistant

import (
	"errors"
	"fmt"

	"github.com/gantryai/gantry/capability"
	"github.com/gantryai/gantry/core"
	"github.com/gantryai/gantry/records"
)

// Record capabilities return status maps ("success", "not_found",
// "no_projects", "no_people", "multiple_found", "info") so policy text can
// react to the outcome conversationally. Classified capability errors are
// reserved for conflicts, invalid arguments and store failures.

func projectCapabilities(store records.Store) []capability.Capability {
	return []capability.Capability{
		createProjectCapability(store),
		getProjectDetailsCapability(store),
		listProjectsCapability(store),
		updateProjectCapability(store),
	}
}

func peopleCapabilities(store records.Store) []capability.Capability {
	return []capability.Capability{
		createPersonCapability(store),
		getPersonByNameCapability(store),
		getPersonByEmailCapability(store),
		listPeopleCapability(store),
	}
}

func createProjectCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_id":   map[string]any{"type": "string", "description": "Optional explicit project id; generated when omitted"},
			"title":        map[string]any{"type": "string", "description": "Project title"},
			"status":       map[string]any{"type": "string", "enum": records.Statuses(), "description": "Project status"},
			"investigator": map[string]any{"type": "string", "description": "Principal investigator name"},
			"sponsor":      map[string]any{"type": "string", "description": "Sponsoring agency or organization"},
			"affiliation":  map[string]any{"type": "string", "description": "Affiliated college or institute"},
			"description":  map[string]any{"type": "string", "description": "Project description"},
			"start_date":   map[string]any{"type": "string", "description": "Start date, YYYY-MM-DD"},
			"end_date":     map[string]any{"type": "string", "description": "End date, YYYY-MM-DD"},
			"human_subjects": map[string]any{
				"type": "string", "enum": []string{"yes", "no"}, "default": "no",
				"description": "Whether the project involves human subjects",
			},
			"animal_subjects": map[string]any{
				"type": "string", "enum": []string{"yes", "no"}, "default": "no",
				"description": "Whether the project involves animal subjects",
			},
			"award_amount": map[string]any{"type": "number", "description": "Award amount in USD"},
			"award_number": map[string]any{"type": "string", "description": "Sponsor award number"},
			"tags":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Free-form tags"},
		},
		"required": []string{"title", "status"},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		p := records.Project{
			ID:             strArg(args, "project_id"),
			Title:          strArg(args, "title"),
			Status:         records.Status(strArg(args, "status")),
			Investigator:   strArg(args, "investigator"),
			Sponsor:        strArg(args, "sponsor"),
			Affiliation:    strArg(args, "affiliation"),
			Description:    strArg(args, "description"),
			StartDate:      strArg(args, "start_date"),
			EndDate:        strArg(args, "end_date"),
			HumanSubjects:  strArg(args, "human_subjects"),
			AnimalSubjects: strArg(args, "animal_subjects"),
			AwardAmount:    floatArg(args, "award_amount"),
			AwardNumber:    strArg(args, "award_number"),
			Tags:           strSliceArg(args, "tags"),
		}
		created, err := store.CreateProject(toolCtx.Context(), p)
		if err != nil {
			return nil, classifyRecordError("create_project", err)
		}
		return map[string]any{
			"status":  "success",
			"message": fmt.Sprintf("Project %q (ID: %s) added to the projects database.", created.Title, created.ID),
			"project": projectMap(created),
		}, nil
	}
	return capability.NewFunction(
		"create_project",
		"Add a new research project to the database. Requires title and status; confirm the details with the user first.",
		params,
		handler,
		capability.WithClass(capability.Mutating),
	)
}

func getProjectDetailsCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_id": map[string]any{"type": "string", "description": "Project id"},
			"title":      map[string]any{"type": "string", "description": "Exact project title, used when the id is unknown"},
		},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		id := strArg(args, "project_id")
		title := strArg(args, "title")
		switch {
		case id != "":
			p, err := store.GetProjectByID(toolCtx.Context(), id)
			if errors.Is(err, records.ErrNotFound) {
				return map[string]any{
					"status":  "not_found",
					"message": fmt.Sprintf("Project with ID %q not found.", id),
				}, nil
			}
			if err != nil {
				return nil, classifyRecordError("get_project_details", err)
			}
			return map[string]any{"status": "success", "project": projectMap(p)}, nil

		case title != "":
			matches, err := store.FindProjectsByTitle(toolCtx.Context(), title)
			if err != nil {
				return nil, classifyRecordError("get_project_details", err)
			}
			switch len(matches) {
			case 0:
				return map[string]any{
					"status":  "not_found",
					"message": fmt.Sprintf("Project with title %q not found.", title),
				}, nil
			case 1:
				return map[string]any{"status": "success", "project": projectMap(matches[0])}, nil
			default:
				return map[string]any{
					"status":         "multiple_found",
					"message":        fmt.Sprintf("Multiple projects titled %q found. Ask the user which project id they mean.", title),
					"projects_found": projectMaps(matches),
				}, nil
			}

		default:
			return nil, capability.NewInvalid("get_project_details", "either project_id or title is required")
		}
	}
	return capability.NewFunction(
		"get_project_details",
		"Retrieve all details of a specific project by its id, or by exact title when the id is unknown.",
		params,
		handler,
	)
}

func listProjectsCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_filter":      map[string]any{"type": "string", "enum": records.Statuses(), "description": "Only projects with this status"},
			"affiliation_filter": map[string]any{"type": "string", "description": "Only projects with this affiliation"},
			"sponsor_filter":     map[string]any{"type": "string", "description": "Only projects with this sponsor"},
		},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		filter := records.ProjectFilter{
			Status:      strArg(args, "status_filter"),
			Affiliation: strArg(args, "affiliation_filter"),
			Sponsor:     strArg(args, "sponsor_filter"),
		}
		projects, err := store.ListProjects(toolCtx.Context(), filter)
		if err != nil {
			return nil, classifyRecordError("list_projects", err)
		}
		if len(projects) == 0 {
			return map[string]any{
				"status":  "no_projects",
				"message": "No projects found matching the criteria.",
			}, nil
		}
		return map[string]any{
			"status":   "success",
			"count":    len(projects),
			"projects": projectMaps(projects),
		}, nil
	}
	return capability.NewFunction(
		"list_projects",
		"List research projects, optionally filtered by status, affiliation or sponsor.",
		params,
		handler,
	)
}

func updateProjectCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_id":          map[string]any{"type": "string", "description": "Id of the project to update"},
			"new_title":           map[string]any{"type": "string"},
			"new_status":          map[string]any{"type": "string", "enum": records.Statuses()},
			"new_investigator":    map[string]any{"type": "string"},
			"new_sponsor":         map[string]any{"type": "string"},
			"new_affiliation":     map[string]any{"type": "string"},
			"new_description":     map[string]any{"type": "string"},
			"new_start_date":      map[string]any{"type": "string"},
			"new_end_date":        map[string]any{"type": "string"},
			"new_human_subjects":  map[string]any{"type": "string", "enum": []string{"yes", "no"}},
			"new_animal_subjects": map[string]any{"type": "string", "enum": []string{"yes", "no"}},
			"new_award_amount":    map[string]any{"type": "number"},
			"new_award_number":    map[string]any{"type": "string"},
			"new_tags":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"project_id"},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		update := records.ProjectUpdate{
			Title:          strPtrArg(args, "new_title"),
			Investigator:   strPtrArg(args, "new_investigator"),
			Sponsor:        strPtrArg(args, "new_sponsor"),
			Affiliation:    strPtrArg(args, "new_affiliation"),
			Description:    strPtrArg(args, "new_description"),
			StartDate:      strPtrArg(args, "new_start_date"),
			EndDate:        strPtrArg(args, "new_end_date"),
			HumanSubjects:  strPtrArg(args, "new_human_subjects"),
			AnimalSubjects: strPtrArg(args, "new_animal_subjects"),
			AwardNumber:    strPtrArg(args, "new_award_number"),
		}
		if s := strPtrArg(args, "new_status"); s != nil {
			status := records.Status(*s)
			update.Status = &status
		}
		if _, ok := args["new_award_amount"]; ok {
			amount := floatArg(args, "new_award_amount")
			update.AwardAmount = &amount
		}
		if _, ok := args["new_tags"]; ok {
			tags := strSliceArg(args, "new_tags")
			update.Tags = &tags
		}
		if update == (records.ProjectUpdate{}) {
			return map[string]any{"status": "info", "message": "No fields provided for update."}, nil
		}

		id := strArg(args, "project_id")
		updated, err := store.UpdateProject(toolCtx.Context(), id, update)
		if errors.Is(err, records.ErrNotFound) {
			return map[string]any{
				"status":  "not_found",
				"message": fmt.Sprintf("Project with ID %q not found.", id),
			}, nil
		}
		if err != nil {
			return nil, classifyRecordError("update_project", err)
		}
		return map[string]any{
			"status":  "success",
			"message": fmt.Sprintf("Project %q updated successfully.", id),
			"project": projectMap(updated),
		}, nil
	}
	return capability.NewFunction(
		"update_project",
		"Update fields of an existing project by id. Only the provided fields change; confirm with the user before writing.",
		params,
		handler,
		capability.WithClass(capability.Mutating),
	)
}

func createPersonCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"person_id":   map[string]any{"type": "string", "description": "Optional explicit person id; generated when omitted"},
			"name":        map[string]any{"type": "string", "description": "Full name, firstname lastname"},
			"email":       map[string]any{"type": "string", "description": "Email address"},
			"affiliation": map[string]any{"type": "string", "description": "College or institute"},
			"role":        map[string]any{"type": "string", "description": "Role, e.g. Investigator or Research Administrator"},
		},
		"required": []string{"name"},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		p := records.Person{
			ID:          strArg(args, "person_id"),
			Name:        strArg(args, "name"),
			Email:       strArg(args, "email"),
			Affiliation: strArg(args, "affiliation"),
			Role:        strArg(args, "role"),
		}
		created, err := store.CreatePerson(toolCtx.Context(), p)
		if err != nil {
			return nil, classifyRecordError("create_person", err)
		}
		return map[string]any{
			"status":  "success",
			"message": fmt.Sprintf("Person %q (ID: %s) added.", created.Name, created.ID),
			"person":  personMap(created),
		}, nil
	}
	return capability.NewFunction(
		"create_person",
		"Add a new person to the people directory. Requires a name; confirm the details with the user first.",
		params,
		handler,
		capability.WithClass(capability.Mutating),
	)
}

func getPersonByNameCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "description": "Full name, firstname lastname"},
		},
		"required": []string{"name"},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		name := strArg(args, "name")
		matches, err := store.FindPeopleByName(toolCtx.Context(), name)
		if err != nil {
			return nil, classifyRecordError("get_person_details_by_name", err)
		}
		switch len(matches) {
		case 0:
			return map[string]any{
				"status":  "not_found",
				"message": fmt.Sprintf("Person with name %q not found.", name),
			}, nil
		case 1:
			return map[string]any{"status": "success", "person": personMap(matches[0])}, nil
		default:
			return map[string]any{
				"status":       "multiple_found",
				"message":      fmt.Sprintf("Multiple people named %q found. Ask for more specific information (email or id) to identify the correct person.", name),
				"people_found": personMaps(matches),
			}, nil
		}
	}
	return capability.NewFunction(
		"get_person_details_by_name",
		"Retrieve details of a person by full name. Reports multiple_found when the name is ambiguous.",
		params,
		handler,
	)
}

func getPersonByEmailCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"email": map[string]any{"type": "string", "description": "Email address, account@host.com"},
		},
		"required": []string{"email"},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		email := strArg(args, "email")
		p, err := store.GetPersonByEmail(toolCtx.Context(), email)
		if errors.Is(err, records.ErrNotFound) {
			return map[string]any{
				"status":  "not_found",
				"message": fmt.Sprintf("Person with email %q not found.", email),
			}, nil
		}
		if err != nil {
			return nil, classifyRecordError("get_person_details_by_email", err)
		}
		return map[string]any{"status": "success", "person": personMap(p)}, nil
	}
	return capability.NewFunction(
		"get_person_details_by_email",
		"Retrieve details of a person by email address.",
		params,
		handler,
	)
}

// listPeopleDisplayCap is the soft cap on people returned for display; the
// result reports the full match count so the agent can suggest filtering.
const listPeopleDisplayCap = 20

func listPeopleCapability(store records.Store) capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"role_filter":        map[string]any{"type": "string", "description": "Only people with this role"},
			"affiliation_filter": map[string]any{"type": "string", "description": "Only people with this affiliation"},
		},
	}
	handler := func(toolCtx *core.ToolContext, args map[string]any) (any, error) {
		filter := records.PersonFilter{
			Role:        strArg(args, "role_filter"),
			Affiliation: strArg(args, "affiliation_filter"),
		}
		people, err := store.ListPeople(toolCtx.Context(), filter)
		if err != nil {
			return nil, classifyRecordError("list_people", err)
		}
		if len(people) == 0 {
			return map[string]any{
				"status":  "no_people",
				"message": noPeopleMessage(filter),
			}, nil
		}
		result := map[string]any{
			"status": "success",
			"count":  len(people),
		}
		if len(people) > listPeopleDisplayCap {
			result["people"] = personMaps(people[:listPeopleDisplayCap])
			result["truncated"] = true
			result["message"] = fmt.Sprintf(
				"Showing %d of %d people. Suggest filtering by role or affiliation.",
				listPeopleDisplayCap, len(people))
		} else {
			result["people"] = personMaps(people)
		}
		return result, nil
	}
	return capability.NewFunction(
		"list_people",
		"List people, optionally filtered by role or affiliation. Results are capped for display.",
		params,
		handler,
	)
}

func noPeopleMessage(f records.PersonFilter) string {
	switch {
	case f.Role != "" && f.Affiliation != "":
		return fmt.Sprintf("No people found with role %q and affiliation %q.", f.Role, f.Affiliation)
	case f.Role != "":
		return fmt.Sprintf("No people found with role %q.", f.Role)
	case f.Affiliation != "":
		return fmt.Sprintf("No people found with affiliation %q.", f.Affiliation)
	}
	return "No people found in the database."
}

// classifyRecordError maps store errors onto capability error classes.
func classifyRecordError(name string, err error) error {
	var vErr *records.ValidationError
	switch {
	case errors.Is(err, records.ErrConflict):
		return capability.NewConflict(name, "record already exists")
	case errors.As(err, &vErr):
		return capability.NewInvalid(name, "%s", vErr.Error())
	default:
		return capability.NewTransient(name, "store operation failed: %v", err)
	}
}

func projectMap(p records.Project) map[string]any {
	return map[string]any{
		"id":              p.ID,
		"title":           p.Title,
		"status":          string(p.Status),
		"investigator":    p.Investigator,
		"sponsor":         p.Sponsor,
		"affiliation":     p.Affiliation,
		"description":     p.Description,
		"start_date":      p.StartDate,
		"end_date":        p.EndDate,
		"human_subjects":  p.HumanSubjects,
		"animal_subjects": p.AnimalSubjects,
		"award_amount":    p.AwardAmount,
		"award_number":    p.AwardNumber,
		"tags":            p.Tags,
	}
}

func projectMaps(projects []records.Project) []map[string]any {
	out := make([]map[string]any, len(projects))
	for i, p := range projects {
		out[i] = projectMap(p)
	}
	return out
}

func personMap(p records.Person) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"email":       p.Email,
		"affiliation": p.Affiliation,
		"role":        p.Role,
	}
}

func personMaps(people []records.Person) []map[string]any {
	out := make([]map[string]any, len(people))
	for i, p := range people {
		out[i] = personMap(p)
	}
	return out
}

func strArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func strPtrArg(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func strSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
