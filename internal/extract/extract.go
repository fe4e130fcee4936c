// Package extract scans accumulated user utterances for financial-profile
// facts using ordered lexical pattern rules. It is best effort: an unmatched
// field stays nil and the caller must tolerate partial records.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"smartassistant/internal/memory"
	"smartassistant/internal/tools"
)

// FactRecord holds the facts recovered from the user-turn history. Nil means
// the heuristic found nothing for that field.
type FactRecord struct {
	Age               *int
	IncomeLevel       *string
	ExperienceYears   *int
	DrawdownTolerance *string
	MonthlyAmount     *float64
}

// Facts is a FactRecord with every field resolved, after default
// substitution.
type Facts struct {
	Age               int
	IncomeLevel       string
	ExperienceYears   int
	DrawdownTolerance string
	MonthlyAmount     float64
}

// Defaults applied once the sufficiency threshold is met.
const (
	DefaultAge               = 30
	DefaultIncomeLevel       = tools.IncomeMedium
	DefaultExperienceYears   = 0
	DefaultDrawdownTolerance = "10%"
	DefaultMonthlyAmount     = 1000
)

var (
	ageRe = regexp.MustCompile(`(\d+)\s*岁`)

	incomeMediumRe = regexp.MustCompile(`(?i)年收入\s*10\s*w|年薪\s*10\s*万|10\s*万年薪|中等收入|中等`)
	incomeLowRe    = regexp.MustCompile(`(?i)低收入|月收入\s*5000\s*以下`)
	incomeHighRe   = regexp.MustCompile(`(?i)高收入|月收入\s*15000\s*以上`)

	noExperienceRe = regexp.MustCompile(`(?i)没有.*经验|没有投资|0\s*年`)
	experienceRe   = regexp.MustCompile(`(\d+)\s*年.*经验`)

	toleranceTenRe = regexp.MustCompile(`(?i)较小.*亏损|10\s*%|能接受\s*10\s*%`)
	toleranceRe    = regexp.MustCompile(`(\d+)\s*%`)

	monthlyOneKRe = regexp.MustCompile(`(?i)1\s*k|1000|每月\s*1\s*k|每月\s*1000`)
	monthlyRe     = regexp.MustCompile(`每月.*?(\d+)\s*[元块]`)
)

// Extract rebuilds a FactRecord from scratch by scanning the concatenated
// user turns. It is a pure function of the history: re-running it over the
// same turns yields the same record regardless of call order.
func Extract(turns []memory.Turn) FactRecord {
	var parts []string
	for _, t := range turns {
		if t.Role == memory.RoleUser && t.Content != "" {
			parts = append(parts, t.Content)
		}
	}
	return scan(strings.Join(parts, " "))
}

func scan(text string) FactRecord {
	var rec FactRecord

	if m := ageRe.FindStringSubmatch(text); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			rec.Age = &age
		}
	}

	switch {
	case incomeMediumRe.MatchString(text):
		rec.IncomeLevel = strPtr(tools.IncomeMedium)
	case incomeLowRe.MatchString(text):
		rec.IncomeLevel = strPtr(tools.IncomeLow)
	case incomeHighRe.MatchString(text):
		rec.IncomeLevel = strPtr(tools.IncomeHigh)
	}

	if noExperienceRe.MatchString(text) {
		rec.ExperienceYears = intPtr(0)
	} else if m := experienceRe.FindStringSubmatch(text); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			rec.ExperienceYears = &years
		}
	}

	if toleranceTenRe.MatchString(text) {
		rec.DrawdownTolerance = strPtr("10%")
	} else if m := toleranceRe.FindStringSubmatch(text); m != nil {
		rec.DrawdownTolerance = strPtr(m[1] + "%")
	}

	if monthlyOneKRe.MatchString(text) {
		rec.MonthlyAmount = floatPtr(1000)
	} else if m := monthlyRe.FindStringSubmatch(text); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			rec.MonthlyAmount = &amount
		}
	}

	return rec
}

// KnownCount reports how many fields the heuristic resolved.
func (r FactRecord) KnownCount() int {
	n := 0
	if r.Age != nil {
		n++
	}
	if r.IncomeLevel != nil {
		n++
	}
	if r.ExperienceYears != nil {
		n++
	}
	if r.DrawdownTolerance != nil {
		n++
	}
	if r.MonthlyAmount != nil {
		n++
	}
	return n
}

// WithDefaults resolves every nil field to its fixed default.
func (r FactRecord) WithDefaults() Facts {
	f := Facts{
		Age:               DefaultAge,
		IncomeLevel:       DefaultIncomeLevel,
		ExperienceYears:   DefaultExperienceYears,
		DrawdownTolerance: DefaultDrawdownTolerance,
		MonthlyAmount:     DefaultMonthlyAmount,
	}
	if r.Age != nil {
		f.Age = *r.Age
	}
	if r.IncomeLevel != nil {
		f.IncomeLevel = *r.IncomeLevel
	}
	if r.ExperienceYears != nil {
		f.ExperienceYears = *r.ExperienceYears
	}
	if r.DrawdownTolerance != nil {
		f.DrawdownTolerance = *r.DrawdownTolerance
	}
	if r.MonthlyAmount != nil {
		f.MonthlyAmount = *r.MonthlyAmount
	}
	return f
}

func (r FactRecord) String() string {
	return fmt.Sprintf("facts(known=%d)", r.KnownCount())
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int { return &n }
func floatPtr(v float64) *float64 { return &v }
