package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRegistrySchemasKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry(FinanceDefinitions()...)
	schemas := r.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("Schemas() returned %d tools, want 2", len(schemas))
	}
	if schemas[0].Name != "assess_risk_profile" || schemas[1].Name != "generate_allocation_plan" {
		t.Fatalf("schema order = [%s, %s], want [assess_risk_profile, generate_allocation_plan]", schemas[0].Name, schemas[1].Name)
	}
	if schemas[0].Parameters == nil {
		t.Fatal("assess_risk_profile schema has no parameters")
	}
}

func TestRegistryDispatchRunsHandler(t *testing.T) {
	r := NewRegistry(FinanceDefinitions()...)
	args, _ := json.Marshal(RiskProfileArgs{Age: 28, IncomeLevel: "medium", MaxDrawdownTolerance: "10%"})

	result := r.Dispatch(context.Background(), "assess_risk_profile", string(args))

	assessment, ok := result.Value.(RiskAssessment)
	if !ok {
		t.Fatalf("Dispatch() value type = %T, want RiskAssessment", result.Value)
	}
	if assessment.RiskLevel != RiskBalanced {
		t.Fatalf("risk level = %q, want %q", assessment.RiskLevel, RiskBalanced)
	}
	var decoded RiskAssessment
	if err := json.Unmarshal([]byte(result.Content), &decoded); err != nil {
		t.Fatalf("content is not valid JSON: %v", err)
	}
	if decoded != assessment {
		t.Fatalf("content %+v does not match value %+v", decoded, assessment)
	}
}

func TestRegistryDispatchUnknownToolReturnsDiagnostic(t *testing.T) {
	r := NewRegistry(FinanceDefinitions()...)

	var gotName, gotOutcome string
	r.OnDispatch = func(name, outcome string) {
		gotName, gotOutcome = name, outcome
	}

	result := r.Dispatch(context.Background(), "no_such_tool", "{}")
	if !strings.Contains(result.Content, "no_such_tool") {
		t.Fatalf("diagnostic %q does not name the missing tool", result.Content)
	}
	if result.Value != nil {
		t.Fatalf("miss result carries a value: %+v", result.Value)
	}
	if gotName != "no_such_tool" || gotOutcome != "miss" {
		t.Fatalf("observed dispatch = (%q, %q), want (no_such_tool, miss)", gotName, gotOutcome)
	}
}

func TestRegistryDispatchBadArgumentsReturnsDiagnostic(t *testing.T) {
	r := NewRegistry(FinanceDefinitions()...)
	result := r.Dispatch(context.Background(), "generate_allocation_plan", "{not json")
	if !strings.Contains(result.Content, "generate_allocation_plan") {
		t.Fatalf("diagnostic %q does not name the tool", result.Content)
	}
}
