package repository

// AgentFilter holds the combinable list filters. Zero values mean "no filter".
// Substring fields match case-insensitively; StatusCode matches exactly.
type AgentFilter struct {
	StatusCode      string
	FullName        string // also fed by the "surname" query alias
	DNI             string
	CUIL            string
	AffiliateStatus string
	Ministry        string
	Agreement       string
	Limit           int
	Offset          int
}
