package assistant

import (
	"strings"

	"github.com/gantryai/gantry/capability"
	"github.com/gantryai/gantry/core"
)

// Opportunity is one entry of the funding call catalog.
type Opportunity struct {
	Agency      string   `json:"agency"`
	Program     string   `json:"program"`
	Deadline    string   `json:"deadline"`
	Amount      string   `json:"amount"`
	Eligibility string   `json:"eligibility"`
	Link        string   `json:"link"`
	Disciplines []string `json:"disciplines"`
	Keywords    []string `json:"keywords"`
}

// fundingCatalog is a built-in catalog of open funding calls. Deadlines are
// rolling or far enough out that the entries stay useful as seed data; a
// deployment would refresh this from an external feed.
var fundingCatalog = []Opportunity{
	{
		Agency:      "NSF",
		Program:     "Computer and Information Science and Engineering (CISE) Core Programs",
		Deadline:    "rolling",
		Amount:      "$500,000 - $1,200,000",
		Eligibility: "US institutions of higher education; PI must hold a faculty appointment.",
		Link:        "https://www.nsf.gov/funding/opportunities/cise-core",
		Disciplines: []string{"computer science", "information science", "engineering"},
		Keywords:    []string{"computing", "algorithms", "systems", "ai", "machine learning", "software"},
	},
	{
		Agency:      "NSF",
		Program:     "Faculty Early Career Development Program (CAREER)",
		Deadline:    "2026-07-22",
		Amount:      "$400,000 - $600,000 over 5 years",
		Eligibility: "Untenured assistant professors at US institutions; one submission per year.",
		Link:        "https://www.nsf.gov/funding/opportunities/career",
		Disciplines: []string{"all"},
		Keywords:    []string{"early career", "career", "faculty", "education"},
	},
	{
		Agency:      "NIH",
		Program:     "Research Project Grant (R01)",
		Deadline:    "2026-10-05",
		Amount:      "$250,000 - $500,000 per year",
		Eligibility: "Health-related research; domestic and foreign institutions eligible.",
		Link:        "https://grants.nih.gov/funding/r01",
		Disciplines: []string{"biomedical", "health", "life sciences"},
		Keywords:    []string{"health", "medicine", "clinical", "biomedical", "disease", "human subjects"},
	},
	{
		Agency:      "NIH",
		Program:     "Exploratory/Developmental Research Grant (R21)",
		Deadline:    "2026-10-16",
		Amount:      "Up to $275,000 over 2 years",
		Eligibility: "Early-stage exploratory projects; no preliminary data required.",
		Link:        "https://grants.nih.gov/funding/r21",
		Disciplines: []string{"biomedical", "health"},
		Keywords:    []string{"exploratory", "pilot", "health", "biomedical"},
	},
	{
		Agency:      "DOE",
		Program:     "Office of Science Early Career Research Program",
		Deadline:    "2027-01-15",
		Amount:      "$875,000 over 5 years",
		Eligibility: "Researchers within 10 years of PhD at US universities or DOE labs.",
		Link:        "https://science.osti.gov/early-career",
		Disciplines: []string{"physics", "chemistry", "energy", "materials", "computing"},
		Keywords:    []string{"energy", "physics", "materials", "early career", "simulation"},
	},
	{
		Agency:      "European Commission",
		Program:     "Horizon Europe ERC Starting Grants",
		Deadline:    "2026-10-14",
		Amount:      "Up to EUR 1,500,000 over 5 years",
		Eligibility: "PIs 2-7 years post-PhD hosted at an EU or associated-country institution.",
		Link:        "https://erc.europa.eu/apply-grant/starting-grant",
		Disciplines: []string{"all"},
		Keywords:    []string{"europe", "erc", "frontier research", "early career"},
	},
	{
		Agency:      "Alfred P. Sloan Foundation",
		Program:     "Sloan Research Fellowships",
		Deadline:    "2026-09-15",
		Amount:      "$75,000 over 2 years",
		Eligibility: "Early-career faculty in chemistry, computer science, economics, mathematics, neuroscience or physics; nomination required.",
		Link:        "https://sloan.org/fellowships",
		Disciplines: []string{"chemistry", "computer science", "economics", "mathematics", "neuroscience", "physics"},
		Keywords:    []string{"fellowship", "early career", "foundation"},
	},
	{
		Agency:      "Gordon and Betty Moore Foundation",
		Program:     "Science Program Investigator Awards",
		Deadline:    "rolling",
		Amount:      "Varies by initiative",
		Eligibility: "By invitation and letter of inquiry; basic science with potential for outsized impact.",
		Link:        "https://www.moore.org/initiatives",
		Disciplines: []string{"life sciences", "physics", "data science"},
		Keywords:    []string{"foundation", "basic science", "data", "biology"},
	},
}

func searchFundingCapability() capability.Capability {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Research topic, field or keywords to match against funding calls",
			},
			"agency": map[string]any{
				"type":        "string",
				"description": "Optional funding agency to restrict the search to",
			},
			"discipline": map[string]any{
				"type":        "string",
				"description": "Optional discipline to restrict the search to",
			},
		},
		"required": []string{"query"},
	}
	handler := func(_ *core.ToolContext, args map[string]any) (any, error) {
		query := strings.ToLower(strArg(args, "query"))
		agency := strings.ToLower(strArg(args, "agency"))
		discipline := strings.ToLower(strArg(args, "discipline"))

		var matches []map[string]any
		for _, opp := range fundingCatalog {
			if agency != "" && !strings.Contains(strings.ToLower(opp.Agency), agency) {
				continue
			}
			if discipline != "" && !matchesDiscipline(opp, discipline) {
				continue
			}
			if query != "" && !matchesQuery(opp, query) {
				continue
			}
			matches = append(matches, opportunityMap(opp))
		}
		if len(matches) == 0 {
			return map[string]any{
				"status":  "no_matches",
				"message": "No open funding calls matched. Try broader keywords or drop the agency/discipline filter.",
			}, nil
		}
		return map[string]any{
			"status":        "success",
			"count":         len(matches),
			"opportunities": matches,
		}, nil
	}
	return capability.NewFunction(
		"search_funding_opportunities",
		"Search the catalog of open funding calls by research topic, optionally restricted by agency or discipline.",
		params,
		handler,
	)
}

func matchesDiscipline(opp Opportunity, discipline string) bool {
	for _, d := range opp.Disciplines {
		if d == "all" || strings.Contains(d, discipline) || strings.Contains(discipline, d) {
			return true
		}
	}
	return false
}

// matchesQuery does word-level substring matching over the program name,
// keywords and disciplines.
func matchesQuery(opp Opportunity, query string) bool {
	haystack := strings.ToLower(opp.Program) + " " +
		strings.ToLower(strings.Join(opp.Keywords, " ")) + " " +
		strings.ToLower(strings.Join(opp.Disciplines, " "))
	for _, word := range strings.Fields(query) {
		if strings.Contains(haystack, word) {
			return true
		}
	}
	return false
}

func opportunityMap(opp Opportunity) map[string]any {
	return map[string]any{
		"agency":      opp.Agency,
		"program":     opp.Program,
		"deadline":    opp.Deadline,
		"amount":      opp.Amount,
		"eligibility": opp.Eligibility,
		"link":        opp.Link,
	}
}
