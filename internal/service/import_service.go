package service

import (
	"context"
	"fmt"
	"strings"

	"retiro-api/internal/dto"
	"retiro-api/internal/models"
	"retiro-api/internal/repository"

	"github.com/google/uuid"
)

// isPlaceholderDNI reports the legacy "no ID" markers found in the source
// spreadsheets; records carrying one are always skipped.
func isPlaceholderDNI(dni string) bool {
	return dni == "" || dni == "-"
}

type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type ImportResult struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors,omitempty"`
}

// AgentImporter implements the bulk-import dedup-and-batch-insert flow.
type AgentImporter struct {
	agents repository.AgentRepository
}

func NewAgentImporter(agents repository.AgentRepository) *AgentImporter {
	return &AgentImporter{agents: agents}
}

// Bulk deduplicates the batch by DNI and batch-inserts the survivors.
//
// The existing-DNI snapshot is read once before the loop and becomes the
// running seen set; each accepted DNI joins it immediately, so a DNI repeated
// within the batch is skipped the second time just like one that already
// exists in the store. Per-record preparation errors exclude only that record.
// A concurrent import inserting the same DNI between the snapshot and the
// insert loses to the store's unique index and shows up as one more skip.
func (s *AgentImporter) Bulk(ctx context.Context, ownerID string, inputs []dto.AgentInput) (ImportResult, error) {
	var res ImportResult

	batchDNIs := make([]string, 0, len(inputs))
	uniq := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		dni := strings.TrimSpace(in.DNI)
		if isPlaceholderDNI(dni) {
			continue
		}
		if _, ok := uniq[dni]; ok {
			continue
		}
		uniq[dni] = struct{}{}
		batchDNIs = append(batchDNIs, dni)
	}

	seen, err := s.agents.ExistingDNIs(ctx, batchDNIs)
	if err != nil {
		return res, fmt.Errorf("existing dni lookup: %w", err)
	}

	pending := make([]models.Agent, 0, len(inputs))
	for i, in := range inputs {
		dni := strings.TrimSpace(in.DNI)
		if isPlaceholderDNI(dni) {
			res.Skipped++
			continue
		}
		if _, dup := seen[dni]; dup {
			res.Skipped++
			continue
		}

		a, err := in.ToAgent(ownerID)
		if err != nil {
			res.Errors = append(res.Errors, ImportError{Index: i, Error: err.Error()})
			continue
		}
		a.DNI = dni
		// batch insert bypasses per-record save hooks, so ids are generated here
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		seen[dni] = struct{}{}
		pending = append(pending, a)
	}

	created, err := s.agents.BulkInsert(ctx, pending)
	res.Created = int(created)
	// rows the conflict clause dropped were concurrent duplicates
	res.Skipped += len(pending) - int(created)
	if err != nil {
		return res, fmt.Errorf("batch insert: %w", err)
	}
	return res, nil
}

// BulkAtomic is the all-or-nothing variant: every record must convert and
// insert cleanly or nothing is written.
func (s *AgentImporter) BulkAtomic(ctx context.Context, ownerID string, inputs []dto.AgentInput) (int, error) {
	records := make([]models.Agent, 0, len(inputs))
	for i, in := range inputs {
		a, err := in.ToAgent(ownerID)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		records = append(records, a)
	}
	if err := s.agents.BulkInsertAtomic(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
