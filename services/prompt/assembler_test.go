package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/retrieval"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"
)

func samplePassages(n int) retrieval.Result {
	var result retrieval.Result
	texts := []string{
		"Fever above 39C in adults warrants evaluation.",
		"Persistent cough beyond three weeks needs follow-up.",
		"Hydration and rest support recovery from viral illness.",
		"Retro-orbital headache with fever can indicate dengue.",
	}
	scores := []float32{0.95, 0.88, 0.71, 0.64}
	for i := 0; i < n && i < len(texts); i++ {
		result.Passages = append(result.Passages, retrieval.PassageChunk{
			ID:     strings.Repeat("p", i+1),
			Text:   texts[i],
			Source: "kb.pdf",
			Score:  scores[i],
		})
	}
	return result
}

func TestAssembleIncludesAllSectionsWhenBudgetAllows(t *testing.T) {
	a := NewAssembler(10000)

	history := []models.Turn{
		{Role: models.RoleUser, Content: "I have a fever"},
		{Role: models.RoleAssistant, Content: "How long have you had it?"},
	}
	schemas := []tools.Schema{{Name: "find_hospitals", Description: "Find hospitals near a location"}}

	plan, err := a.Assemble("Should I see a doctor?", history, samplePassages(3), schemas)
	require.NoError(t, err)

	assert.Equal(t, SystemInstructions, plan.System)
	assert.Len(t, plan.Grounding, 3)
	assert.Equal(t, "[doc-1]", plan.Grounding[0].Marker)
	assert.Len(t, plan.History, 2)
	assert.Len(t, plan.ToolSchemas, 1)
	assert.LessOrEqual(t, plan.Size, 10000)
}

func TestAssembleIsDeterministic(t *testing.T) {
	a := NewAssembler(5000)
	history := []models.Turn{{Role: models.RoleUser, Content: "I have a cough"}}
	schemas := []tools.Schema{{Name: "medical_web_search", Description: "Search the web"}}

	first, err := a.Assemble("Is it serious?", history, samplePassages(4), schemas)
	require.NoError(t, err)
	second, err := a.Assemble("Is it serious?", history, samplePassages(4), schemas)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestAssembleNeverExceedsBudget(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleUser, Content: strings.Repeat("a", 200)},
		{Role: models.RoleAssistant, Content: strings.Repeat("b", 200)},
		{Role: models.RoleUser, Content: strings.Repeat("c", 200)},
	}

	for _, budget := range []int{600, 800, 1000, 2000} {
		a := NewAssembler(budget)
		plan, err := a.Assemble("q", history, samplePassages(4), nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, plan.Size, budget, "budget %d", budget)
		assert.Equal(t, SystemInstructions, plan.System, "system section survives budget %d", budget)
	}
}

func TestAssembleDropsLowestScoringPassagesFirst(t *testing.T) {
	result := samplePassages(4)
	// Budget that fits the system, query, and roughly two passages.
	budget := len(SystemInstructions) + len("q") +
		passageSize(GroundedPassage{Marker: "[doc-1]", Source: "kb.pdf", Text: result.Passages[0].Text}) +
		passageSize(GroundedPassage{Marker: "[doc-2]", Source: "kb.pdf", Text: result.Passages[1].Text})

	a := NewAssembler(budget)
	plan, err := a.Assemble("q", nil, result, nil)
	require.NoError(t, err)

	require.Len(t, plan.Grounding, 2)
	assert.Equal(t, result.Passages[0].Text, plan.Grounding[0].Text)
	assert.Equal(t, result.Passages[1].Text, plan.Grounding[1].Text)
}

func TestAssembleDropsOldestHistoryFirst(t *testing.T) {
	history := []models.Turn{
		{Role: models.RoleUser, Content: strings.Repeat("old", 100)},
		{Role: models.RoleUser, Content: "middle turn"},
		{Role: models.RoleUser, Content: "newest turn"},
	}

	budget := len(SystemInstructions) + len("q") +
		turnSize(history[1]) + turnSize(history[2])

	a := NewAssembler(budget)
	plan, err := a.Assemble("q", history, retrieval.Result{}, nil)
	require.NoError(t, err)

	require.Len(t, plan.History, 2)
	assert.Equal(t, "middle turn", plan.History[0].Content)
	assert.Equal(t, "newest turn", plan.History[1].Content)
}

func TestAssembleHistoryNeverSplitsMidTurn(t *testing.T) {
	bigTurn := models.Turn{Role: models.RoleUser, Content: strings.Repeat("x", 500)}
	budget := len(SystemInstructions) + len("q") + turnSize(bigTurn) - 1

	a := NewAssembler(budget)
	plan, err := a.Assemble("q", []models.Turn{bigTurn}, retrieval.Result{}, nil)
	require.NoError(t, err)

	// The turn does not fit, so it is dropped entirely.
	assert.Empty(t, plan.History)
}

func TestAssembleBudgetTooSmallForSystem(t *testing.T) {
	a := NewAssembler(10)
	_, err := a.Assemble("q", nil, retrieval.Result{}, nil)
	assert.Error(t, err)
}

func TestGroundingTextCarriesCitationMarkers(t *testing.T) {
	a := NewAssembler(10000)
	plan, err := a.Assemble("q", nil, samplePassages(2), nil)
	require.NoError(t, err)

	text := plan.GroundingText()
	assert.Contains(t, text, "[doc-1]")
	assert.Contains(t, text, "[doc-2]")
	assert.Contains(t, text, "kb.pdf")
}

func TestGroundingTextEmptyWithoutPassages(t *testing.T) {
	plan := Plan{}
	assert.Empty(t, plan.GroundingText())
}
