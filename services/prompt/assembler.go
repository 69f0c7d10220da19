package prompt

import (
	"fmt"
	"strings"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/retrieval"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"
)

// SystemInstructions is the fixed safety preamble. It is always included
// in full and never truncated, whatever the budget.
const SystemInstructions = `You are MediBlaze, a medical information assistant. Ground every answer in the provided knowledge base passages and cite them with their [doc-N] markers. Be accurate and measured: do not diagnose, do not prescribe, and recommend consulting a healthcare professional for anything urgent or uncertain. If the passages do not cover the question, say so rather than guessing. Use the available tools when the user needs current information or nearby facilities.`

// GroundedPassage is a passage with its citation marker, ready for
// inclusion in the grounding section.
type GroundedPassage struct {
	Marker  string `json:"marker"`
	Source  string `json:"source"`
	Text    string `json:"text"`
}

// Plan is the fully assembled input for one generation request. Identical
// inputs always produce an identical Plan; there is no hidden randomness,
// so plans are reproducible in tests.
type Plan struct {
	System      string            `json:"system"`
	Grounding   []GroundedPassage `json:"grounding"`
	History     []models.Turn     `json:"history"`
	Query       string            `json:"query"`
	ToolSchemas []tools.Schema    `json:"tool_schemas,omitempty"`

	// Size is the serialized character count, always <= the budget the
	// plan was assembled under.
	Size int `json:"size"`
}

// GroundingText renders the grounding section as it is sent to the model.
func (p Plan) GroundingText() string {
	if len(p.Grounding) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Knowledge base passages:\n")
	for _, g := range p.Grounding {
		fmt.Fprintf(&sb, "%s (source: %s)\n%s\n\n", g.Marker, g.Source, g.Text)
	}
	return sb.String()
}

// Assembler builds generation plans under a character budget.
type Assembler struct {
	budget int
}

// NewAssembler creates an assembler with the given character budget.
func NewAssembler(budget int) *Assembler {
	return &Assembler{budget: budget}
}

// Assemble merges the system instructions, retrieved passages, bounded
// history, and tool schemas into a Plan. Sections are filled in fixed
// priority order (system, which is never truncated, then grounding,
// history, tools) and inclusion stops when the next item would exceed
// the budget.
// History is dropped oldest-first at turn granularity, never mid-turn.
func (a *Assembler) Assemble(query string, history []models.Turn, result retrieval.Result, schemas []tools.Schema) (Plan, error) {
	plan := Plan{
		System: SystemInstructions,
		Query:  query,
	}

	used := len(plan.System) + len(query)
	if used > a.budget {
		return Plan{}, services.NewDomainError(services.ErrorTypeValidation,
			"budget cannot fit system instructions and query", nil).
			WithDetail("budget", a.budget).
			WithDetail("required", used)
	}

	// Grounding: passages arrive sorted by descending score, so greedy
	// inclusion drops the lowest-scoring ones first.
	for i, passage := range result.Passages {
		grounded := GroundedPassage{
			Marker: fmt.Sprintf("[doc-%d]", i+1),
			Source: passage.Source,
			Text:   passage.Text,
		}
		cost := passageSize(grounded)
		if used+cost > a.budget {
			break
		}
		plan.Grounding = append(plan.Grounding, grounded)
		used += cost
	}

	// History: walk newest-first so the oldest turns fall off when the
	// budget runs out, then restore chronological order.
	var kept []models.Turn
	for i := len(history) - 1; i >= 0; i-- {
		cost := turnSize(history[i])
		if used+cost > a.budget {
			break
		}
		kept = append(kept, history[i])
		used += cost
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	plan.History = kept

	// Tool schemas, each included only when it fits.
	for _, schema := range schemas {
		cost := schemaSize(schema)
		if used+cost > a.budget {
			break
		}
		plan.ToolSchemas = append(plan.ToolSchemas, schema)
		used += cost
	}

	plan.Size = used
	return plan, nil
}

func passageSize(g GroundedPassage) int {
	return len(g.Marker) + len(g.Source) + len(g.Text)
}

func turnSize(turn models.Turn) int {
	size := len(turn.Role) + len(turn.Content) + len(turn.ToolCallID)
	for _, call := range turn.ToolCalls {
		size += len(call.ID) + len(call.Name) + len(call.Arguments)
	}
	return size
}

func schemaSize(schema tools.Schema) int {
	size := len(schema.Name) + len(schema.Description)
	for _, name := range schema.ParamNames() {
		spec := schema.Parameters[name]
		size += len(name) + len(spec.Type) + len(spec.Description)
		for _, e := range spec.Enum {
			size += len(e)
		}
	}
	return size
}
