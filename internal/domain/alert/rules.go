package alert

// Rule is a canned playbook for a category of incident.
type Rule struct {
	SuggestedActions        []string `json:"suggested_actions"`
	EstimatedResolutionTime string   `json:"estimated_resolution_time"`
	RequiredResources       []string `json:"required_resources"`
}

// Suggestions is the result of looking up an alert's category in Rules.
type Suggestions struct {
	Rule
	SimilarIncidents []Alert `json:"similar_incidents"`
}

// Rules is the deterministic suggestion table. Categories without an entry
// use FallbackRule.
var Rules = map[Category]Rule{
	CategoryFoodShortage: {
		SuggestedActions: []string{
			"Contact backup catering vendors immediately",
			"Redistribute food from less busy stations",
			"Implement portion control temporarily",
			"Set up additional serving stations",
		},
		EstimatedResolutionTime: "15-30 minutes",
		RequiredResources:       []string{"Backup food supplies", "Additional serving staff", "Mobile food stations"},
	},
	CategoryTechnicalIssue: {
		SuggestedActions: []string{
			"Switch to backup equipment immediately",
			"Contact technical support team",
			"Test alternative audio setup",
			"Prepare manual backup plan",
		},
		EstimatedResolutionTime: "5-15 minutes",
		RequiredResources:       []string{"Backup microphones", "Audio technician", "Portable speakers"},
	},
}

// FallbackRule applies to every category missing from Rules.
var FallbackRule = Rule{
	SuggestedActions: []string{
		"Assess the situation immediately",
		"Contact relevant team members",
		"Implement contingency plan",
		"Monitor and update status regularly",
	},
	EstimatedResolutionTime: "20-45 minutes",
	RequiredResources:       []string{"Additional staff", "Emergency supplies"},
}

// Suggest returns the playbook for target. Similar incidents are the other
// alerts in pool sharing target's category, and only reported for
// categories with a dedicated rule. Suggest never mutates its inputs.
func Suggest(target Alert, pool []Alert) Suggestions {
	rule, ok := Rules[target.Category]
	if !ok {
		return Suggestions{Rule: FallbackRule.clone(), SimilarIncidents: []Alert{}}
	}
	similar := []Alert{}
	for _, a := range pool {
		if a.ID != target.ID && a.Category == target.Category {
			similar = append(similar, a.Clone())
		}
	}
	return Suggestions{Rule: rule.clone(), SimilarIncidents: similar}
}

func (r Rule) clone() Rule {
	return Rule{
		SuggestedActions:        cloneList(r.SuggestedActions),
		EstimatedResolutionTime: r.EstimatedResolutionTime,
		RequiredResources:       cloneList(r.RequiredResources),
	}
}
