// Package prediction provides the predict_conditions tool: a symptom
// triage heuristic that scores severity and duration, matches symptom
// patterns against a rule table, and grounds its summary in knowledge
// base passages.
package prediction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/retrieval"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"
)

// contextPassages bounds how many retrieved passages feed the summary.
const contextPassages = 5

// Retriever supplies differential-diagnosis passages from the knowledge
// base.
type Retriever interface {
	Retrieve(ctx context.Context, query string, history []models.Turn, opts retrieval.Options) (retrieval.Result, error)
}

// Tool analyzes reported symptoms and suggests likely conditions with a
// risk assessment. It is triage support, never a diagnosis.
type Tool struct {
	retriever Retriever
	opts      retrieval.Options
	logger    *zap.Logger
}

// New creates the tool. opts controls the grounding lookup; a deeper
// TopK than conversational retrieval helps differential coverage.
func New(retriever Retriever, opts retrieval.Options, logger *zap.Logger) *Tool {
	if opts.TopK == 0 {
		opts.TopK = 10
	}
	return &Tool{retriever: retriever, opts: opts, logger: logger}
}

func (t *Tool) Name() string {
	return "predict_conditions"
}

func (t *Tool) Schema() tools.Schema {
	return tools.Schema{
		Name:        "predict_conditions",
		Description: "Analyze reported symptoms and suggest the most likely conditions with risk levels and next steps. Use after gathering symptoms, duration, and severity over a few exchanges.",
		Parameters: map[string]tools.ParamSpec{
			"symptoms": {
				Type:        tools.ParamTypeString,
				Description: "Main symptoms, e.g. \"fever, headache behind eyes, nausea\"",
				Required:    true,
			},
			"duration": {
				Type:        tools.ParamTypeString,
				Description: "How long symptoms have persisted, e.g. \"2 days\"",
				Required:    true,
			},
			"severity": {
				Type:        tools.ParamTypeString,
				Description: "Intensity, e.g. \"mild\", \"severe\", \"7/10 pain\"",
				Required:    true,
			},
			"additional_info": {
				Type:        tools.ParamTypeString,
				Description: "Contact history, medications tried, relevant negatives",
			},
		},
	}
}

// severityBand classifies free-text severity into a risk band.
func severityBand(severity string) string {
	s := strings.ToLower(severity)
	for _, term := range []string{"severe", "worst", "unbearable", "9", "10"} {
		if strings.Contains(s, term) {
			return "HIGH"
		}
	}
	for _, term := range []string{"moderate", "significant", "6", "7", "8"} {
		if strings.Contains(s, term) {
			return "MODERATE"
		}
	}
	return "MILD"
}

// durationBand classifies free-text duration into a persistence band.
func durationBand(duration string) string {
	d := strings.ToLower(duration)
	for _, term := range []string{"week", "month", "chronic"} {
		if strings.Contains(d, term) {
			return "PROLONGED"
		}
	}
	for _, term := range []string{"days", "3 day", "4 day", "5 day"} {
		if strings.Contains(d, term) {
			return "MODERATE"
		}
	}
	return "ACUTE"
}

// condition is one entry in the triage output.
type condition struct {
	Name        string
	Probability string
	Risk        string
	Reasoning   string
	Tests       string
	Actions     []string
}

// rule matches a symptom pattern to a candidate condition. All terms in
// Match must appear; any term in Exclude vetoes. HighSeverityOnly rules
// fire only in the HIGH severity band.
type rule struct {
	Match            []string
	Exclude          []string
	HighSeverityOnly bool
	Condition        condition
}

var rules = []rule{
	{
		Match: []string{"fever", "eye", "nausea"},
		Condition: condition{
			Name:        "Dengue Fever",
			Probability: "HIGH (75-85%)",
			Risk:        "MODERATE-HIGH",
			Reasoning:   "Fever with retro-orbital headache and nausea is the classic dengue triad.",
			Tests:       "Complete blood count, dengue NS1 antigen, IgM/IgG antibodies",
			Actions:     []string{"See a doctor within 24 hours", "Monitor platelet count", "Hydrate aggressively", "Avoid NSAIDs (aspirin/ibuprofen)"},
		},
	},
	{
		Match: []string{"fever", "ache"},
		Condition: condition{
			Name:        "Viral Fever (Influenza or Common Viral Infection)",
			Probability: "HIGH (70-80%)",
			Risk:        "MODERATE",
			Reasoning:   "Fever with body aches and systemic symptoms points to a viral infection.",
			Tests:       "Usually a clinical diagnosis; rapid flu test if severe",
			Actions:     []string{"Rest and hydration", "Paracetamol for fever", "Monitor for 48-72 hours", "See a doctor if worsening"},
		},
	},
	{
		Match:            []string{"headache", "sudden"},
		HighSeverityOnly: true,
		Condition: condition{
			Name:        "URGENT: Possible Meningitis or Intracranial Issue",
			Probability: "LOW-MODERATE (15-30%)",
			Risk:        "VERY HIGH",
			Reasoning:   "Sudden severe headache can indicate a serious infection or bleed.",
			Tests:       "URGENT: CT scan, lumbar puncture",
			Actions:     []string{"SEEK EMERGENCY CARE IMMEDIATELY", "Do not delay", "Check for neck stiffness or confusion"},
		},
	},
	{
		Match: []string{"headache", "nausea", "light"},
		Condition: condition{
			Name:        "Migraine",
			Probability: "HIGH (70-85%)",
			Risk:        "MODERATE",
			Reasoning:   "Headache with photophobia and nausea is the classic migraine triad.",
			Tests:       "Clinical diagnosis; imaging only if red flags present",
			Actions:     []string{"Rest in a dark, quiet room", "Triptans or NSAIDs if appropriate", "Antiemetics for nausea", "Track and avoid triggers"},
		},
	},
	{
		Match: []string{"cough", "fever"},
		Condition: condition{
			Name:        "Lower Respiratory Tract Infection (Bronchitis or Pneumonia)",
			Probability: "MODERATE-HIGH (60-75%)",
			Risk:        "MODERATE-HIGH",
			Reasoning:   "Cough with fever suggests a bacterial or viral lower respiratory infection.",
			Tests:       "Chest X-ray, sputum culture",
			Actions:     []string{"See a doctor for evaluation", "May need antibiotics", "Monitor breathing", "Stay hydrated"},
		},
	},
	{
		Match:   []string{"cough"},
		Exclude: []string{"fever"},
		Condition: condition{
			Name:        "Post-Viral Cough / Upper Respiratory Infection",
			Probability: "HIGH (70-80%)",
			Risk:        "LOW",
			Reasoning:   "An isolated cough without fever is often post-viral.",
			Tests:       "Usually none needed",
			Actions:     []string{"Honey and steam inhalation", "Over-the-counter cough suppressants", "See a doctor if it lasts over 2 weeks"},
		},
	},
	{
		Match: []string{"vomit"},
		Condition: condition{
			Name:        "Gastroenteritis / Food Poisoning",
			Probability: "HIGH (75-85%)",
			Risk:        "MODERATE",
			Reasoning:   "Gastrointestinal symptoms after recent food exposure suggest food poisoning.",
			Tests:       "Stool culture if severe",
			Actions:     []string{"Aggressive oral rehydration", "Bland diet", "Avoid dairy temporarily", "See a doctor for bloody stool or high fever"},
		},
	},
	{
		Match: []string{"diarrhea"},
		Condition: condition{
			Name:        "Gastroenteritis / Food Poisoning",
			Probability: "HIGH (75-85%)",
			Risk:        "MODERATE",
			Reasoning:   "Gastrointestinal symptoms after recent food exposure suggest food poisoning.",
			Tests:       "Stool culture if severe",
			Actions:     []string{"Aggressive oral rehydration", "Bland diet", "Avoid dairy temporarily", "See a doctor for bloody stool or high fever"},
		},
	},
}

var fallbackCondition = condition{
	Name:        "Undifferentiated Viral Illness",
	Probability: "MODERATE (50-70%)",
	Risk:        "MODERATE",
	Reasoning:   "Symptoms suggest a viral infection but the pattern is unclear; clinical evaluation is needed.",
	Tests:       "Complete blood count, CRP, viral panel if indicated",
	Actions:     []string{"Symptomatic management", "Medical evaluation recommended", "Monitor closely"},
}

func matchConditions(symptoms string, sevBand string) []condition {
	s := strings.ToLower(symptoms)
	var matched []condition
	seen := make(map[string]bool)

	for _, r := range rules {
		if r.HighSeverityOnly && sevBand != "HIGH" {
			continue
		}
		ok := true
		for _, term := range r.Match {
			if !strings.Contains(s, term) {
				ok = false
				break
			}
		}
		for _, term := range r.Exclude {
			if strings.Contains(s, term) {
				ok = false
				break
			}
		}
		if ok && !seen[r.Condition.Name] {
			matched = append(matched, r.Condition)
			seen[r.Condition.Name] = true
		}
	}

	if len(matched) == 0 {
		matched = append(matched, fallbackCondition)
	}
	if len(matched) > 5 {
		matched = matched[:5]
	}
	return matched
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	symptoms, _ := args["symptoms"].(string)
	duration, _ := args["duration"].(string)
	severity, _ := args["severity"].(string)
	additional, _ := args["additional_info"].(string)

	if strings.TrimSpace(symptoms) == "" {
		return "", fmt.Errorf("symptoms must not be empty")
	}

	sevBand := severityBand(severity)
	durBand := durationBand(duration)

	t.logger.Debug("running symptom triage",
		zap.String("severity_band", sevBand),
		zap.String("duration_band", durBand))

	query := fmt.Sprintf("diseases and conditions with symptoms: %s, duration %s, severity %s. Differential diagnosis, causes, treatment.",
		symptoms, duration, severity)
	result, err := t.retriever.Retrieve(ctx, query, nil, t.opts)
	if err != nil {
		// Triage still has value without grounding passages.
		t.logger.Warn("knowledge base lookup failed during triage", zap.Error(err))
		result = retrieval.Result{}
	}

	conditions := matchConditions(symptoms, sevBand)
	return renderReport(symptoms, duration, severity, additional, sevBand, durBand, conditions, result), nil
}

func renderReport(symptoms, duration, severity, additional, sevBand, durBand string, conditions []condition, result retrieval.Result) string {
	var sb strings.Builder

	sb.WriteString("SYMPTOM TRIAGE ANALYSIS\n\n")
	fmt.Fprintf(&sb, "Symptoms: %s\n", symptoms)
	fmt.Fprintf(&sb, "Duration: %s (%s)\n", duration, durBand)
	fmt.Fprintf(&sb, "Severity: %s (%s risk)\n", severity, sevBand)
	if additional != "" {
		fmt.Fprintf(&sb, "Additional context: %s\n", additional)
	}

	sb.WriteString("\nMost likely conditions:\n")
	for i, c := range conditions {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, c.Name)
		fmt.Fprintf(&sb, "   Probability: %s | Risk: %s\n", c.Probability, c.Risk)
		fmt.Fprintf(&sb, "   Why: %s\n", c.Reasoning)
		fmt.Fprintf(&sb, "   Recommended tests: %s\n", c.Tests)
		sb.WriteString("   Next steps:\n")
		for _, a := range c.Actions {
			fmt.Fprintf(&sb, "   - %s\n", a)
		}
	}

	if len(result.Passages) > 0 {
		sb.WriteString("\nRelevant knowledge base context:\n")
		limit := len(result.Passages)
		if limit > contextPassages {
			limit = contextPassages
		}
		for _, p := range result.Passages[:limit] {
			fmt.Fprintf(&sb, "- %s\n", p.Text)
		}
	}

	sb.WriteString("\nSeek emergency care for: difficulty breathing or chest pain, " +
		"severe headache with neck stiffness, persistent vomiting with dehydration, " +
		"confusion or altered mental status, or a fever with a rash that does not blanch.\n")
	sb.WriteString("\nImportant: this is AI-assisted triage based on symptom patterns, not a diagnosis. " +
		"Only a healthcare professional can diagnose after proper examination and tests.")

	return sb.String()
}

var _ tools.Tool = (*Tool)(nil)
