// Package assistant assembles the research-administration agent hierarchy:
// a coordinator that routes user requests to a database manager (project and
// person records) and a research administrator (funding eligibility and
// funding opportunity search).
package assistant

import (
	"fmt"

	"github.com/gantryai/gantry/agent"
	"github.com/gantryai/gantry/capability"
	"github.com/gantryai/gantry/records"
)

// AppName is the session namespace for this assistant.
const AppName = "research"

// Build wires the capability registry and the agent hierarchy over the given
// record store. The returned root is the coordinator; its OutputKey records
// each turn's final assignment result in session state.
func Build(store records.Store) (*agent.Node, *capability.Registry, error) {
	if store == nil {
		return nil, nil, fmt.Errorf("assistant: record store is required")
	}

	registry := capability.NewRegistry()
	if err := registry.Register(projectCapabilities(store)...); err != nil {
		return nil, nil, err
	}
	if err := registry.Register(peopleCapabilities(store)...); err != nil {
		return nil, nil, err
	}
	if err := registry.Register(searchFundingCapability()); err != nil {
		return nil, nil, err
	}

	databaseManager := &agent.Node{
		Name:        "database_manager",
		Description: "Manages research project and people records: create, look up, list and update.",
		Policy:      agent.StaticPolicy(databaseManagerPolicy),
		Tools: []string{
			"create_project",
			"get_project_details",
			"list_projects",
			"update_project",
			"create_person",
			"get_person_details_by_name",
			"get_person_details_by_email",
			"list_people",
		},
	}

	eligibilityChecker := &agent.Node{
		Name:        "funding_eligibility_checker",
		Description: "Evaluates the funding eligibility of research projects against NSF review criteria.",
		Policy:      agent.StaticPolicy(eligibilityCheckerPolicy),
		Tools:       []string{"get_project_details"},
	}

	fundingSearch := &agent.Node{
		Name:        "funding_opportunity_search",
		Description: "Finds open funding opportunities matching a research topic or project.",
		Policy:      agent.StaticPolicy(fundingSearchPolicy),
		Tools:       []string{"search_funding_opportunities", "get_project_details"},
	}

	researchAdministrator := &agent.Node{
		Name:        "research_administrator",
		Description: "Supports research administration tasks: funding guidelines, eligibility checks and opportunity searches.",
		Policy:      agent.StaticPolicy(researchAdministratorPolicy),
		Children:    []*agent.Node{eligibilityChecker, fundingSearch},
	}

	coordinator := &agent.Node{
		Name:        "main_coordinator",
		Description: "The research lifecycle management assistant; greets the user and distributes tasks to specialized agents.",
		Policy:      agent.StaticPolicy(coordinatorPolicy),
		Children:    []*agent.Node{databaseManager, researchAdministrator},
		OutputKey:   "task_assignment",
	}

	if err := coordinator.Validate(); err != nil {
		return nil, nil, err
	}
	return coordinator, registry, nil
}
