package auth

// Known OAuth scopes used by the check-in service.
const (
	ScopeGymsWrite        = "gyms:write"
	ScopeGymsRead         = "gyms:read"
	ScopeCheckInsWrite    = "checkins:write"
	ScopeCheckInsRead     = "checkins:read"
	ScopeCheckInsValidate = "checkins:validate"
)
