package dto

import (
	"encoding/json"
	"fmt"
	"strings"

	"retiro-api/internal/models"
)

// fieldAliases maps the camelCase keys the frontend sends to the canonical
// snake_case column names. Clients may use either form; canonical wins when
// both are present.
var fieldAliases = map[string]string{
	"fullName":        "full_name",
	"birthDate":       "birth_date",
	"retirementDate":  "retirement_date",
	"affiliateStatus": "affiliate_status",
}

// NormalizeAliases rewrites aliased keys in a JSON object to their canonical
// names. Used by every agent-payload decoder so the mapping lives in one place.
func NormalizeAliases(b []byte) ([]byte, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	for alias, canonical := range fieldAliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		if _, exists := raw[canonical]; !exists {
			raw[canonical] = v
		}
		delete(raw, alias)
	}
	return json.Marshal(raw)
}

// AgentInput is one agent record as submitted by a client (single create or
// one element of a bulk import). Dates stay strings here so a malformed date
// in one bulk row surfaces as that row's error instead of failing the decode
// of the whole batch.
type AgentInput struct {
	ID              string        `json:"id"`
	FullName        string        `json:"full_name"`
	BirthDate       string        `json:"birth_date"`
	Gender          string        `json:"gender"`
	RetirementDate  string        `json:"retirement_date"`
	Status          models.Status `json:"status"`
	Agreement       string        `json:"agreement"`
	Law             string        `json:"law"`
	AffiliateStatus string        `json:"affiliate_status"`
	Ministry        string        `json:"ministry"`
	Location        string        `json:"location"`
	Branch          string        `json:"branch"`
	CUIL            string        `json:"cuil"`
	DNI             string        `json:"dni"`
	Seniority       string        `json:"seniority"`
}

func (in *AgentInput) UnmarshalJSON(b []byte) error {
	nb, err := NormalizeAliases(b)
	if err != nil {
		return err
	}
	type plain AgentInput // avoid recursing into this method
	return json.Unmarshal(nb, (*plain)(in))
}

// ToAgent converts the input to a model record owned by userID.
// The caller generates the id when absent.
func (in *AgentInput) ToAgent(userID string) (models.Agent, error) {
	a := models.Agent{
		ID:              strings.TrimSpace(in.ID),
		UserID:          userID,
		FullName:        strings.TrimSpace(in.FullName),
		Gender:          strings.TrimSpace(in.Gender),
		Status:          in.Status,
		Agreement:       strings.TrimSpace(in.Agreement),
		Law:             strings.TrimSpace(in.Law),
		AffiliateStatus: strings.TrimSpace(in.AffiliateStatus),
		Ministry:        strings.TrimSpace(in.Ministry),
		Location:        strings.TrimSpace(in.Location),
		Branch:          strings.TrimSpace(in.Branch),
		CUIL:            strings.TrimSpace(in.CUIL),
		DNI:             strings.TrimSpace(in.DNI),
		Seniority:       strings.TrimSpace(in.Seniority),
	}
	if s := strings.TrimSpace(in.BirthDate); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			return models.Agent{}, fmt.Errorf("birth_date: %w", err)
		}
		a.BirthDate = d
	}
	if s := strings.TrimSpace(in.RetirementDate); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			return models.Agent{}, fmt.Errorf("retirement_date: %w", err)
		}
		a.RetirementDate = d
	}
	return a, nil
}

// AgentPatch carries a partial update; nil means "leave unchanged".
// Alias keys are accepted the same way as on create.
type AgentPatch struct {
	FullName        *string        `json:"full_name"`
	BirthDate       *string        `json:"birth_date"`
	Gender          *string        `json:"gender"`
	RetirementDate  *string        `json:"retirement_date"`
	Status          *models.Status `json:"status"`
	Agreement       *string        `json:"agreement"`
	Law             *string        `json:"law"`
	AffiliateStatus *string        `json:"affiliate_status"`
	Ministry        *string        `json:"ministry"`
	Location        *string        `json:"location"`
	Branch          *string        `json:"branch"`
	CUIL            *string        `json:"cuil"`
	DNI             *string        `json:"dni"`
	Seniority       *string        `json:"seniority"`
}

func (p *AgentPatch) UnmarshalJSON(b []byte) error {
	nb, err := NormalizeAliases(b)
	if err != nil {
		return err
	}
	type plain AgentPatch
	return json.Unmarshal(nb, (*plain)(p))
}

// Apply folds the patch into an existing record.
func (p *AgentPatch) Apply(a *models.Agent) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.FullName, p.FullName)
	set(&a.Gender, p.Gender)
	set(&a.Agreement, p.Agreement)
	set(&a.Law, p.Law)
	set(&a.AffiliateStatus, p.AffiliateStatus)
	set(&a.Ministry, p.Ministry)
	set(&a.Location, p.Location)
	set(&a.Branch, p.Branch)
	set(&a.CUIL, p.CUIL)
	set(&a.DNI, p.DNI)
	set(&a.Seniority, p.Seniority)
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.BirthDate != nil {
		if s := strings.TrimSpace(*p.BirthDate); s == "" {
			a.BirthDate = nil
		} else {
			d, err := models.ParseDate(s)
			if err != nil {
				return fmt.Errorf("birth_date: %w", err)
			}
			a.BirthDate = d
		}
	}
	if p.RetirementDate != nil {
		if s := strings.TrimSpace(*p.RetirementDate); s == "" {
			a.RetirementDate = nil
		} else {
			d, err := models.ParseDate(s)
			if err != nil {
				return fmt.Errorf("retirement_date: %w", err)
			}
			a.RetirementDate = d
		}
	}
	return nil
}
