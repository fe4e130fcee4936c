package agent

import (
	"fmt"
	"strconv"
	"strings"

	"smartassistant/internal/tools"
)

// genericAck is the last-resort reply when no structured tool result is
// available to format.
const genericAck = "已为您完成评估，请查看上述配置方案。"

var riskLevelCN = map[string]string{
	tools.RiskConservative: "保守型",
	tools.RiskBalanced:     "平衡型",
	tools.RiskAggressive:   "激进型",
}

func riskLevelLabel(level string) string {
	if cn, ok := riskLevelCN[level]; ok {
		return cn
	}
	return level
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAllocationReply renders the guaranteed human-readable reply for an
// allocation plan: category lines plus the fixed disclaimer block.
func formatAllocationReply(plan tools.AllocationPlan) string {
	label := riskLevelLabel(plan.RiskLevel)

	var b strings.Builder
	fmt.Fprintf(&b, "根据您的风险承受能力评估，您属于【%s】投资者。\n\n", label)
	fmt.Fprintf(&b, "📊 资产配置方案（每月投资 %s 元）：\n\n", formatAmount(plan.MonthlyInvestAmount))
	for _, item := range plan.Plan {
		fmt.Fprintf(&b, "• %s：%d%%（每月约 %s 元）\n", item.Category, item.Percent, formatAmount(item.Amount))
	}
	fmt.Fprintf(&b, "\n💡 方案说明：\n")
	fmt.Fprintf(&b, "- 此方案基于您的风险承受能力（%s）制定\n", label)
	b.WriteString("- 建议采用定投方式，长期坚持\n")
	b.WriteString("- 可根据市场情况和个人需求适当调整\n\n")
	b.WriteString("⚠️ 风险提示：\n")
	b.WriteString("- 投资有风险，入市需谨慎\n")
	b.WriteString("- 本方案仅供参考，不构成投资建议\n")
	b.WriteString("- 请根据自身情况谨慎决策")
	return b.String()
}

// formatAssessmentReply renders an assessment-only reply and prompts for the
// monthly budget the planner still needs.
func formatAssessmentReply(a tools.RiskAssessment) string {
	var b strings.Builder
	b.WriteString("✅ 风险评估完成\n\n")
	b.WriteString(a.Explanation)
	fmt.Fprintf(&b, "\n\n风险等级：%s（评分：%d分）\n\n", riskLevelLabel(a.RiskLevel), a.Score)
	b.WriteString("请继续提供每月可投资金额，我将为您生成具体的资产配置方案。")
	return b.String()
}

// fallbackFromResults synthesizes a reply from captured structured tool
// results: prefer an allocation plan, then an assessment, then the generic
// acknowledgement.
func fallbackFromResults(results []tools.Result) string {
	var plan *tools.AllocationPlan
	var assessment *tools.RiskAssessment
	for _, res := range results {
		switch v := res.Value.(type) {
		case tools.AllocationPlan:
			plan = &v
		case tools.RiskAssessment:
			assessment = &v
		}
	}
	if plan != nil {
		return formatAllocationReply(*plan)
	}
	if assessment != nil {
		return formatAssessmentReply(*assessment)
	}
	return genericAck
}
