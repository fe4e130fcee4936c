package agent

import (
	"context"
	"strings"
	"testing"

	"smartassistant/internal/extract"
	"smartassistant/internal/llm"
	"smartassistant/internal/memory"
	"smartassistant/internal/tools"
)

func financeRegistry() *tools.Registry {
	return tools.NewRegistry(tools.FinanceDefinitions()...)
}

func seededLog(userTurns ...string) *memory.Log {
	l := memory.NewLog()
	for _, content := range userTurns {
		l.Append(memory.Turn{Role: memory.RoleUser, Content: content})
	}
	return l
}

func TestFinanceSufficientPathUsesTemplateOnShortRestyle(t *testing.T) {
	log := seededLog("我今年28岁", "算是中等收入吧")
	model := &scriptedModel{t: t, steps: []func(llm.Request) (llm.Reply, error){
		func(req llm.Request) (llm.Reply, error) {
			if len(req.Tools) != 0 {
				t.Fatal("restyle call must not advertise tools")
			}
			// One assistant turn carrying both calls, then one result per call.
			assistant := req.Messages[2]
			if len(assistant.ToolCalls) != 2 {
				t.Fatalf("synthesized exchange has %d tool calls, want 2", len(assistant.ToolCalls))
			}
			if assistant.ToolCalls[0].Name != "assess_risk_profile" || assistant.ToolCalls[1].Name != "generate_allocation_plan" {
				t.Fatalf("tool call order = %q, %q", assistant.ToolCalls[0].Name, assistant.ToolCalls[1].Name)
			}
			if req.Messages[3].ToolCallID != assistant.ToolCalls[0].ID || req.Messages[4].ToolCallID != assistant.ToolCalls[1].ID {
				t.Fatal("tool results not paired with their calls")
			}
			return llm.Reply{Role: llm.RoleAssistant, Content: "好的。"}, nil
		},
	}}

	a := NewFinanceAgent(model, financeRegistry(), log)
	var fallbackReason string
	a.OnFallback = func(reason string) { fallbackReason = reason }

	got, err := a.Reply(context.Background(), "我没有投资经验")
	if err != nil {
		t.Fatalf("Reply() unexpected error = %v", err)
	}
	if fallbackReason != "restyle_rejected" {
		t.Fatalf("fallback reason = %q, want restyle_rejected", fallbackReason)
	}
	// 28 / medium / 0 years plus default tolerance and budget.
	for _, want := range []string{"【平衡型】", "每月投资 1000 元", "⚠️ 风险提示"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Reply() missing %q:\n%s", want, got)
		}
	}

	turns := log.All()
	last := turns[len(turns)-1]
	if last.Role != memory.RoleAssistant || last.Content != got {
		t.Fatalf("final reply not persisted, last turn = %+v", last)
	}
}

func TestFinanceSufficientPathKeepsGoodRestyle(t *testing.T) {
	log := seededLog("我今年28岁", "算是中等收入吧")
	restyled := strings.Repeat("根据评估结果，建议您采用平衡型的定投配置方案。", 4)
	model := &scriptedModel{t: t, steps: []func(llm.Request) (llm.Reply, error){
		func(llm.Request) (llm.Reply, error) {
			return llm.Reply{Role: llm.RoleAssistant, Content: restyled}, nil
		},
	}}

	a := NewFinanceAgent(model, financeRegistry(), log)
	a.OnFallback = func(reason string) { t.Fatalf("unexpected fallback %q", reason) }

	got, err := a.Reply(context.Background(), "没有投资经验")
	if err != nil {
		t.Fatalf("Reply() unexpected error = %v", err)
	}
	if got != restyled {
		t.Fatalf("Reply() = %q, want the restyled narration kept", got)
	}
}

func TestFinanceInsufficientPathAsksForFacts(t *testing.T) {
	question := "为了评估您的风险承受能力，请先告诉我您的年龄和大致收入水平。"
	model := &scriptedModel{t: t, steps: []func(llm.Request) (llm.Reply, error){
		func(req llm.Request) (llm.Reply, error) {
			if len(req.Tools) != 2 {
				t.Fatalf("advertised %d tools, want 2", len(req.Tools))
			}
			if req.ToolChoice != "auto" {
				t.Fatalf("ToolChoice = %q, want auto", req.ToolChoice)
			}
			return llm.Reply{Role: llm.RoleAssistant, Content: question}, nil
		},
	}}

	log := memory.NewLog()
	a := NewFinanceAgent(model, financeRegistry(), log)

	got, err := a.Reply(context.Background(), "你好，我想做点理财规划")
	if err != nil {
		t.Fatalf("Reply() unexpected error = %v", err)
	}
	if got != question {
		t.Fatalf("Reply() = %q, want the clarifying question", got)
	}
	if log.Len() != 2 {
		t.Fatalf("log has %d turns, want user + assistant", log.Len())
	}
}

func TestFinanceInsufficientPathFallsBackOnBadNarration(t *testing.T) {
	model := &scriptedModel{t: t, steps: []func(llm.Request) (llm.Reply, error){
		func(llm.Request) (llm.Reply, error) {
			return llm.Reply{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
				ID:        "call-1",
				Name:      "assess_risk_profile",
				Arguments: `{"age":40,"income_level":"low","investment_experience_years":0,"max_drawdown_tolerance":"5%"}`,
			}}}, nil
		},
		func(req llm.Request) (llm.Reply, error) {
			last := req.Messages[len(req.Messages)-1]
			if last.Role != llm.RoleTool || last.ToolCallID != "call-1" {
				t.Fatalf("last message = %+v, want the tool result for call-1", last)
			}
			return llm.Reply{Role: llm.RoleAssistant, Content: "<|redacted_tool_calls|>好的。"}, nil
		},
	}}

	log := memory.NewLog()
	a := NewFinanceAgent(model, financeRegistry(), log)
	var fallbackReason string
	a.OnFallback = func(reason string) { fallbackReason = reason }

	got, err := a.Reply(context.Background(), "帮我看看")
	if err != nil {
		t.Fatalf("Reply() unexpected error = %v", err)
	}
	if fallbackReason != "narration_rejected" {
		t.Fatalf("fallback reason = %q, want narration_rejected", fallbackReason)
	}
	// Only an assessment was produced, so the fallback renders it.
	if !strings.Contains(got, "✅ 风险评估完成") {
		t.Fatalf("Reply() = %q, want the assessment fallback", got)
	}
	if strings.Contains(got, "<|") {
		t.Fatalf("Reply() leaked control markup: %q", got)
	}

	// user, assistant(tool calls), tool, assistant.
	turns := log.All()
	if len(turns) != 4 {
		t.Fatalf("log has %d turns, want 4", len(turns))
	}
	if turns[1].Role != memory.RoleAssistant || len(turns[1].ToolCalls) != 1 {
		t.Fatalf("tool-call turn not persisted: %+v", turns[1])
	}
	if turns[2].Role != memory.RoleTool || turns[2].ToolCallID != "call-1" {
		t.Fatalf("tool-result turn not persisted: %+v", turns[2])
	}
}

func TestFinanceUnknownToolStillCompletesExchange(t *testing.T) {
	narration := strings.Repeat("我目前还无法进行税务测算，不过可以先完成风险评估再继续。", 3)
	model := &scriptedModel{t: t, steps: []func(llm.Request) (llm.Reply, error){
		func(llm.Request) (llm.Reply, error) {
			return llm.Reply{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
				ID:        "call-x",
				Name:      "estimate_tax",
				Arguments: `{}`,
			}}}, nil
		},
		func(req llm.Request) (llm.Reply, error) {
			last := req.Messages[len(req.Messages)-1]
			if !strings.Contains(last.Content, "未找到名为 estimate_tax 的工具") {
				t.Fatalf("tool result = %q, want the unknown-tool diagnostic", last.Content)
			}
			return llm.Reply{Role: llm.RoleAssistant, Content: narration}, nil
		},
	}}

	a := NewFinanceAgent(model, financeRegistry(), memory.NewLog())
	got, err := a.Reply(context.Background(), "帮我算下个税")
	if err != nil {
		t.Fatalf("Reply() unexpected error = %v", err)
	}
	if got != narration {
		t.Fatalf("Reply() = %q, want the model's recovery narration", got)
	}
}

func TestFinanceFactsAccumulateAcrossTurns(t *testing.T) {
	log := seededLog("我今年28岁")
	rec := extract.Extract(log.All())
	if classifyFacts(rec) != InfoInsufficient {
		t.Fatal("one fact classified as sufficient")
	}

	log.Append(memory.Turn{Role: memory.RoleUser, Content: "算是中等收入吧"})
	log.Append(memory.Turn{Role: memory.RoleUser, Content: "没有投资经验"})
	rec = extract.Extract(log.All())
	if classifyFacts(rec) != InfoSufficient {
		t.Fatalf("three facts classified as insufficient: %+v", rec)
	}
}
