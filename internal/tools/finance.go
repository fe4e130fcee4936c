package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Risk levels produced by the assessment and consumed by the planner.
const (
	RiskConservative = "conservative"
	RiskBalanced     = "balanced"
	RiskAggressive   = "aggressive"
)

// Income levels recognized by the assessment.
const (
	IncomeLow    = "low"
	IncomeMedium = "medium"
	IncomeHigh   = "high"
)

// RiskProfileArgs are the arguments of the assess_risk_profile tool.
type RiskProfileArgs struct {
	Age                       int    `json:"age"`
	IncomeLevel               string `json:"income_level"`
	InvestmentExperienceYears int    `json:"investment_experience_years"`
	MaxDrawdownTolerance      string `json:"max_drawdown_tolerance"`
}

// RiskAssessment is the structured result of assess_risk_profile.
type RiskAssessment struct {
	RiskLevel   string `json:"risk_level"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// AllocationPlanArgs are the arguments of the generate_allocation_plan tool.
type AllocationPlanArgs struct {
	RiskLevel           string  `json:"risk_level"`
	MonthlyInvestAmount float64 `json:"monthly_invest_amount"`
}

// AllocationItem is one category line of an allocation plan.
type AllocationItem struct {
	Category string  `json:"category"`
	Percent  int     `json:"percent"`
	Amount   float64 `json:"amount"`
}

// AllocationPlan is the structured result of generate_allocation_plan.
type AllocationPlan struct {
	RiskLevel           string           `json:"risk_level"`
	MonthlyInvestAmount float64          `json:"monthly_invest_amount"`
	Plan                []AllocationItem `json:"plan"`
}

// AssessRiskProfile scores the user's risk capacity as an order-independent
// sum of four bucketed sub-scores and maps the total to a risk level.
func AssessRiskProfile(args RiskProfileArgs) RiskAssessment {
	score := 0

	switch {
	case args.Age < 30:
		score += 30
	case args.Age < 45:
		score += 20
	default:
		score += 10
	}

	switch strings.ToLower(args.IncomeLevel) {
	case IncomeHigh:
		score += 30
	case IncomeMedium:
		score += 20
	default:
		score += 10
	}

	switch {
	case args.InvestmentExperienceYears >= 5:
		score += 20
	case args.InvestmentExperienceYears >= 2:
		score += 15
	case args.InvestmentExperienceYears >= 1:
		score += 10
	default:
		score += 5
	}

	tol := parseTolerancePercent(args.MaxDrawdownTolerance)
	switch {
	case tol >= 30:
		score += 20
	case tol >= 20:
		score += 15
	case tol >= 10:
		score += 10
	default:
		score += 5
	}

	level := RiskConservative
	switch {
	case score >= 80:
		level = RiskAggressive
	case score >= 55:
		level = RiskBalanced
	}

	return RiskAssessment{
		RiskLevel:   level,
		Score:       score,
		Explanation: fmt.Sprintf("综合打分 %d 分，因此判断为 %s 类型投资者（仅供参考）。", score, level),
	}
}

// parseTolerancePercent parses a "10%"-style tolerance, defaulting to 10 on
// any failure.
func parseTolerancePercent(raw string) int {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	tol, err := strconv.Atoi(s)
	if err != nil {
		return 10
	}
	return tol
}

// GenerateAllocationPlan splits a monthly budget across three fixed
// categories keyed by risk level. Category order is fixed per level.
func GenerateAllocationPlan(args AllocationPlanArgs) AllocationPlan {
	level := strings.ToLower(args.RiskLevel)

	var percents [3]int
	switch level {
	case RiskConservative:
		percents = [3]int{40, 40, 20}
	case RiskBalanced:
		percents = [3]int{20, 40, 40}
	default:
		percents = [3]int{10, 20, 70}
	}

	categories := [3]string{"现金及货币基金", "债券基金", "宽基指数基金"}
	plan := make([]AllocationItem, 0, len(categories))
	for i, category := range categories {
		plan = append(plan, AllocationItem{
			Category: category,
			Percent:  percents[i],
			Amount:   round2(args.MonthlyInvestAmount * float64(percents[i]) / 100),
		})
	}

	return AllocationPlan{
		RiskLevel:           level,
		MonthlyInvestAmount: args.MonthlyInvestAmount,
		Plan:                plan,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FinanceDefinitions returns the finance tool set for registration.
func FinanceDefinitions() []Definition {
	return []Definition{
		{
			Name:        "assess_risk_profile",
			Description: "根据用户的年龄、收入、投资经验和可承受最大回撤，评估用户的风险承受能力。",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"age": map[string]any{
						"type":        "integer",
						"description": "用户年龄（岁）。",
					},
					"income_level": map[string]any{
						"type":        "string",
						"description": "收入水平：low / medium / high。",
					},
					"investment_experience_years": map[string]any{
						"type":        "integer",
						"description": "投资经验年数。",
					},
					"max_drawdown_tolerance": map[string]any{
						"type":        "string",
						"description": "可承受最大亏损比例，如 '10%'、'20%'。",
					},
				},
				"required": []string{
					"age",
					"income_level",
					"investment_experience_years",
					"max_drawdown_tolerance",
				},
			},
			Handler: func(_ context.Context, raw json.RawMessage) (any, error) {
				var args RiskProfileArgs
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, fmt.Errorf("decode arguments: %w", err)
				}
				return AssessRiskProfile(args), nil
			},
		},
		{
			Name:        "generate_allocation_plan",
			Description: "根据风险等级和每月可投资金额，生成简单的资产配置方案。",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"risk_level": map[string]any{
						"type":        "string",
						"description": "风险等级：conservative / balanced / aggressive。",
					},
					"monthly_invest_amount": map[string]any{
						"type":        "number",
						"description": "每月可投资金额（元）。",
					},
				},
				"required": []string{"risk_level", "monthly_invest_amount"},
			},
			Handler: func(_ context.Context, raw json.RawMessage) (any, error) {
				var args AllocationPlanArgs
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, fmt.Errorf("decode arguments: %w", err)
				}
				return GenerateAllocationPlan(args), nil
			},
		},
	}
}
