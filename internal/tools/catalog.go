// Package tools defines the fixed catalog of operations the language model
// may request during an exchange.
//
// Each tool owns its parameter schema and a typed argument struct; raw JSON
// from the model is decoded and validated before the underlying store or
// synchronizer operation runs.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"healthbot/internal/llm"
	"healthbot/internal/outbreak"
	"healthbot/pkg"
)

var (
	// ErrUnknownTool is returned by Lookup for names absent from the catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments marks arguments that do not match a tool's schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Tool names as presented to the model.
const (
	NameVaccineSchedule = "get_vaccine_schedule"
	NameDiseaseSymptoms = "get_disease_symptoms"
	NameActiveOutbreaks = "check_active_outbreaks"
	NameSyncOutbreaks   = "sync_who_outbreaks"
)

// KnowledgeStore is the read side of the knowledge store used by lookups.
type KnowledgeStore interface {
	FindVaccineSchedules(ctx context.Context, disease string) ([]pkg.VaccinationSchedule, error)
	FindSymptomGuides(ctx context.Context, disease string) ([]pkg.SymptomGuide, error)
	FindOutbreaks(ctx context.Context, query string) ([]pkg.DiseaseOutbreak, error)
}

// OutbreakSyncer refreshes the outbreak collection.
type OutbreakSyncer interface {
	Sync(ctx context.Context) (outbreak.Result, error)
}

// Tool is one callable operation.  Execute returns the string handed back to
// the model.  Errors wrapping ErrInvalidArguments are the caller's fault;
// any other error means the store is unusable.
type Tool interface {
	Spec() llm.ToolSpec
	Execute(ctx context.Context, args string) (string, error)
}

// Catalog is the immutable set of tools.  Specs are built once so every
// model call sees the same catalog in the same order.
type Catalog struct {
	tools  []Tool
	byName map[string]Tool
	specs  []llm.ToolSpec
}

// NewCatalog wires the four tools to their collaborators.
func NewCatalog(store KnowledgeStore, syncer OutbreakSyncer) *Catalog {
	return newCatalog(
		&vaccineScheduleTool{store: store},
		&diseaseSymptomsTool{store: store},
		&activeOutbreaksTool{store: store},
		&syncOutbreaksTool{syncer: syncer},
	)
}

func newCatalog(tools ...Tool) *Catalog {
	c := &Catalog{
		tools:  tools,
		byName: make(map[string]Tool, len(tools)),
		specs:  make([]llm.ToolSpec, 0, len(tools)),
	}
	for _, t := range tools {
		spec := t.Spec()
		c.byName[spec.Name] = t
		c.specs = append(c.specs, spec)
	}
	return c
}

// Specs returns the tool descriptions in catalog order.
func (c *Catalog) Specs() []llm.ToolSpec {
	out := make([]llm.ToolSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (Tool, error) {
	t, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// toolNames lists tool names in catalog order.
func (c *Catalog) toolNames() []string {
	names := make([]string, 0, len(c.specs))
	for _, s := range c.specs {
		names = append(names, s.Name)
	}
	return names
}

// encodeRecords serialises matches as a JSON array, or returns the no-data
// sentence when there are none.
func encodeRecords[T any](records []T, noData string) (string, error) {
	if len(records) == 0 {
		return noData, nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(data), nil
}
