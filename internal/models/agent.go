package models

import "time"

// Status codes an agent can be in, relative to retirement eligibility.
const (
	StatusVencido   = "vencido"
	StatusProximo   = "proximo"
	StatusInminente = "inminente"
)

// Status is the structured eligibility state stored as JSON,
// e.g. {"code":"inminente","label":"INMINENTE (< 6 meses)"}.
type Status struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type Agent struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	FullName        string    `json:"full_name"`
	BirthDate       *Date     `json:"birth_date"`
	Gender          string    `json:"gender"`
	RetirementDate  *Date     `json:"retirement_date"`
	Status          Status    `json:"status"`
	Agreement       string    `json:"agreement"`
	Law             string    `json:"law"`
	AffiliateStatus string    `json:"affiliate_status"`
	Ministry        string    `json:"ministry"`
	Location        string    `json:"location"`
	Branch          string    `json:"branch"`
	CUIL            string    `json:"cuil"`
	DNI             string    `json:"dni"`
	Seniority       string    `json:"seniority"`
	CreatedAt       time.Time `json:"created_at"`
}
