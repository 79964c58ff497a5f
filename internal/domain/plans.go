package domain

import "strings"

// Plan is a subscription tier stored on the landlord
type Plan string

const (
	PlanFree  Plan = "FREE"
	PlanBasic Plan = "BASIC"
	PlanPro   Plan = "PRO"
)

// ResourceKind identifies a quota-gated resource
type ResourceKind string

const (
	ResourceProperties ResourceKind = "properties"
	ResourceUnits      ResourceKind = "units"
	ResourceAgents     ResourceKind = "agents"
)

// PlanLimits holds the numeric ceilings of a plan
type PlanLimits struct {
	MaxProperties int `json:"maxProperties"`
	MaxUnits      int `json:"maxUnits"`
	MaxAgents     int `json:"maxAgents"`
}

var planLimits = map[Plan]PlanLimits{
	PlanFree:  {MaxProperties: 1, MaxUnits: 10, MaxAgents: 1},
	PlanBasic: {MaxProperties: 5, MaxUnits: 50, MaxAgents: 5},
	PlanPro:   {MaxProperties: 50, MaxUnits: 500, MaxAgents: 25},
}

// LimitsFor returns the ceilings for plan. Unknown plans get the FREE ceilings.
func LimitsFor(plan Plan) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Max returns the ceiling for a resource kind
func (l PlanLimits) Max(kind ResourceKind) int {
	switch kind {
	case ResourceProperties:
		return l.MaxProperties
	case ResourceUnits:
		return l.MaxUnits
	case ResourceAgents:
		return l.MaxAgents
	}
	return 0
}

// IsValid checks if the plan is known
func (p Plan) IsValid() bool {
	_, ok := planLimits[p]
	return ok
}

// PlanFromSlug maps a checkout slug ("basic", "pro") to a paid plan
func PlanFromSlug(slug string) (Plan, bool) {
	switch strings.ToLower(strings.TrimSpace(slug)) {
	case "basic":
		return PlanBasic, true
	case "pro":
		return PlanPro, true
	}
	return "", false
}

// Slug returns the lower-case checkout slug
func (p Plan) Slug() string {
	return strings.ToLower(string(p))
}
