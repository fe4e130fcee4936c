package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"smartassistant/internal/extract"
	"smartassistant/internal/llm"
	"smartassistant/internal/memory"
	"smartassistant/internal/tools"
)

// FinanceAgent plans investments from facts accumulated over the session.
// It owns the session's conversation log exclusively.
type FinanceAgent struct {
	model    llm.Client
	registry *tools.Registry
	log      *memory.Log

	// OnFallback, when set, observes every deterministic fallback with its
	// reason ("restyle_rejected", "narration_rejected").
	OnFallback func(reason string)
}

var _ Agent = (*FinanceAgent)(nil)

func NewFinanceAgent(model llm.Client, registry *tools.Registry, log *memory.Log) *FinanceAgent {
	return &FinanceAgent{model: model, registry: registry, log: log}
}

func classifyFacts(rec extract.FactRecord) InfoState {
	if rec.KnownCount() >= sufficientFactCount {
		return InfoSufficient
	}
	return InfoInsufficient
}

func (a *FinanceAgent) Reply(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	a.log.Append(memory.Turn{Role: memory.RoleUser, Content: input})

	// Facts are rebuilt from scratch off the full user history every turn;
	// correctness must not depend on when a fact was mentioned.
	rec := extract.Extract(a.log.All())
	if classifyFacts(rec) == InfoSufficient {
		return a.sufficientPath(ctx, input, rec)
	}
	return a.insufficientPath(ctx)
}

// sufficientPath skips the model's own tool choice: with three known facts
// (defaults filling the rest) the deterministic tools already produce the
// correct answer, and the model is only asked to restyle it. A restyled
// reply that is empty or too short loses to the template.
func (a *FinanceAgent) sufficientPath(ctx context.Context, input string, rec extract.FactRecord) (string, error) {
	facts := rec.WithDefaults()

	assessArgs := tools.RiskProfileArgs{
		Age:                       facts.Age,
		IncomeLevel:               facts.IncomeLevel,
		InvestmentExperienceYears: facts.ExperienceYears,
		MaxDrawdownTolerance:      facts.DrawdownTolerance,
	}
	assessment := tools.AssessRiskProfile(assessArgs)

	planArgs := tools.AllocationPlanArgs{
		RiskLevel:           assessment.RiskLevel,
		MonthlyInvestAmount: facts.MonthlyAmount,
	}
	plan := tools.GenerateAllocationPlan(planArgs)

	templated := formatAllocationReply(plan)

	msgs, err := restyleExchange(input, assessArgs, assessment, planArgs, plan)
	if err != nil {
		return "", err
	}
	reply, err := a.model.Complete(ctx, llm.Request{Messages: msgs})
	if err != nil {
		return "", err
	}

	final := strings.TrimSpace(reply.Content)
	if utf8.RuneCountInString(final) < minNarrationRunes {
		a.observeFallback("restyle_rejected")
		final = templated
	}

	a.log.Append(memory.Turn{Role: memory.RoleAssistant, Content: final})
	return final, nil
}

// restyleExchange synthesizes the tool-call/tool-result transcript the model
// narrates from in the sufficient path.
func restyleExchange(input string, assessArgs tools.RiskProfileArgs, assessment tools.RiskAssessment, planArgs tools.AllocationPlanArgs, plan tools.AllocationPlan) ([]llm.Message, error) {
	assessArgsJSON, err := json.Marshal(assessArgs)
	if err != nil {
		return nil, fmt.Errorf("encode assessment arguments: %w", err)
	}
	planArgsJSON, err := json.Marshal(planArgs)
	if err != nil {
		return nil, fmt.Errorf("encode plan arguments: %w", err)
	}
	assessmentJSON, err := json.Marshal(assessment)
	if err != nil {
		return nil, fmt.Errorf("encode assessment: %w", err)
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	assessID := uuid.NewString()
	planID := uuid.NewString()
	return []llm.Message{
		{Role: llm.RoleSystem, Content: financeSystemPrompt},
		{Role: llm.RoleUser, Content: input},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: assessID, Name: "assess_risk_profile", Arguments: string(assessArgsJSON)},
			{ID: planID, Name: "generate_allocation_plan", Arguments: string(planArgsJSON)},
		}},
		{Role: llm.RoleTool, Content: string(assessmentJSON), ToolCallID: assessID},
		{Role: llm.RoleTool, Content: string(planJSON), ToolCallID: planID},
	}, nil
}

// insufficientPath runs the model loop over the capped recent window with
// tools advertised, persisting every produced turn. After the second model
// call the narration passes through the sanitizer and quality gate before
// being trusted over the deterministic fallback.
func (a *FinanceAgent) insufficientPath(ctx context.Context) (string, error) {
	window := a.log.Recent(memory.ModelContextWindow)
	msgs := append([]llm.Message{{Role: llm.RoleSystem, Content: financeSystemPrompt}}, turnsToMessages(window)...)

	reply, err := a.model.Complete(ctx, llm.Request{
		Messages:   msgs,
		Tools:      a.registry.Schemas(),
		ToolChoice: "auto",
	})
	if err != nil {
		return "", err
	}

	if len(reply.ToolCalls) == 0 {
		if reply.Content != "" {
			a.log.Append(memory.Turn{Role: memory.RoleAssistant, Content: reply.Content})
		}
		return reply.Content, nil
	}

	a.log.Append(memory.Turn{
		Role:      memory.RoleAssistant,
		Content:   reply.Content,
		ToolCalls: toolCallsToTurn(reply.ToolCalls),
	})
	msgs = append(msgs, assistantMessage(reply))

	// Result turns keep the order of the originating calls so id pairing
	// stays unambiguous on the next call.
	results := make([]tools.Result, 0, len(reply.ToolCalls))
	for _, tc := range reply.ToolCalls {
		result := a.registry.Dispatch(ctx, tc.Name, tc.Arguments)
		results = append(results, result)
		a.log.Append(memory.Turn{
			Role:       memory.RoleTool,
			Content:    result.Content,
			ToolCallID: tc.ID,
		})
		msgs = append(msgs, llm.Message{
			Role:       llm.RoleTool,
			Content:    result.Content,
			ToolCallID: tc.ID,
		})
	}

	final, err := a.model.Complete(ctx, llm.Request{Messages: msgs})
	if err != nil {
		return "", err
	}

	text := StripControlMarkers(final.Content)
	if !narrationUsable(text) {
		a.observeFallback("narration_rejected")
		text = fallbackFromResults(results)
	}

	a.log.Append(memory.Turn{Role: memory.RoleAssistant, Content: text})
	return text, nil
}

func (a *FinanceAgent) observeFallback(reason string) {
	if a.OnFallback != nil {
		a.OnFallback(reason)
	}
}
