package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"healthbot/internal/llm"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// NoDataPrefix starts every empty-lookup result so the model can tell "no
// match" apart from a failure.
const NoDataPrefix = "No data found"

type diseaseArgs struct {
	Disease *string `json:"disease"`
}

func (a diseaseArgs) validate() (string, error) {
	if a.Disease == nil || strings.TrimSpace(*a.Disease) == "" {
		return "", fmt.Errorf("%w: disease is required", ErrInvalidArguments)
	}
	return strings.TrimSpace(*a.Disease), nil
}

type queryArgs struct {
	Query *string `json:"query"`
}

func (a queryArgs) validate() (string, error) {
	if a.Query == nil {
		return "", fmt.Errorf("%w: query is required", ErrInvalidArguments)
	}
	return strings.TrimSpace(*a.Query), nil
}

// decodeArgs parses the model's argument object into dst.  An empty string
// is treated as an empty object.
func decodeArgs(raw string, dst any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after argument object", ErrInvalidArguments)
	}
	return nil
}

func stringParam(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

type vaccineScheduleTool struct {
	store KnowledgeStore
}

func (t *vaccineScheduleTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        NameVaccineSchedule,
		Description: "Look up the recommended vaccination schedule (age group and doses) for a disease in the local knowledge base.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"disease": stringParam("Disease name in English, e.g. Polio, Measles, Hepatitis B"),
			},
			Required: []string{"disease"},
		},
	}
}

func (t *vaccineScheduleTool) Execute(ctx context.Context, raw string) (string, error) {
	var args diseaseArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	disease, err := args.validate()
	if err != nil {
		return "", err
	}
	records, err := t.store.FindVaccineSchedules(ctx, disease)
	if err != nil {
		return "", err
	}
	return encodeRecords(records, fmt.Sprintf("%s: no vaccination schedule matches %q.", NoDataPrefix, disease))
}

type diseaseSymptomsTool struct {
	store KnowledgeStore
}

func (t *diseaseSymptomsTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        NameDiseaseSymptoms,
		Description: "Look up the common symptoms and prevention advice for a disease in the local knowledge base.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"disease": stringParam("Disease name in English, e.g. Cholera, Influenza"),
			},
			Required: []string{"disease"},
		},
	}
}

func (t *diseaseSymptomsTool) Execute(ctx context.Context, raw string) (string, error) {
	var args diseaseArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	disease, err := args.validate()
	if err != nil {
		return "", err
	}
	records, err := t.store.FindSymptomGuides(ctx, disease)
	if err != nil {
		return "", err
	}
	return encodeRecords(records, fmt.Sprintf("%s: no symptom guide matches %q.", NoDataPrefix, disease))
}

type activeOutbreaksTool struct {
	store KnowledgeStore
}

func (t *activeOutbreaksTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        NameActiveOutbreaks,
		Description: "Search locally stored disease outbreak reports whose title contains the query (a disease or country). Use an empty query to list all stored reports.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": stringParam("Disease or country to look for in outbreak titles, e.g. Cholera or Sudan"),
			},
			Required: []string{"query"},
		},
	}
}

func (t *activeOutbreaksTool) Execute(ctx context.Context, raw string) (string, error) {
	var args queryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	query, err := args.validate()
	if err != nil {
		return "", err
	}
	records, err := t.store.FindOutbreaks(ctx, query)
	if err != nil {
		return "", err
	}
	return encodeRecords(records, fmt.Sprintf("%s: no stored outbreak report matches %q. Stored reports can be refreshed with %s.", NoDataPrefix, query, NameSyncOutbreaks))
}

type syncOutbreaksTool struct {
	syncer OutbreakSyncer
}

func (t *syncOutbreaksTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        NameSyncOutbreaks,
		Description: "Download the latest disease outbreak news from the World Health Organization and store new reports locally.",
		Parameters: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: map[string]jsonschema.Definition{},
		},
	}
}

func (t *syncOutbreaksTool) Execute(ctx context.Context, raw string) (string, error) {
	var args struct{}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	res, err := t.syncer.Sync(ctx)
	if err != nil {
		return "", err
	}
	return res.Message(), nil
}
