package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LogicRule 条件显示规则：本题仅在被依赖题的答案满足条件时可见。
// 依赖题用三个键冗余定位，按 baseQuestionOriginalSequence、baseQuestionUuid、
// baseQuestionSequence 的优先级解析，重排题目后由 SyncLogicSequences 重写。
type LogicRule struct {
	BaseQuestionOriginalSequence *int     `json:"baseQuestionOriginalSequence,omitempty"`
	BaseQuestionUUID             string   `json:"baseQuestionUuid,omitempty"`
	BaseQuestionSequence         *int     `json:"baseQuestionSequence,omitempty"`
	Condition                    string   `json:"condition"`
	Value                        string   `json:"value,omitempty"`
	Options                      []string `json:"options,omitempty"`
	MatchType                    string   `json:"matchType,omitempty"`
	Operator                     string   `json:"operator,omitempty"`
	NumericValue                 *float64 `json:"numericValue,omitempty"`
}

// ParseLogicRule 解析存储的规则 JSON，空对象视为无规则
func ParseLogicRule(raw json.RawMessage) (*LogicRule, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, nil
	}
	var rule LogicRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return nil, err
	}
	if rule.BaseQuestionOriginalSequence == nil && rule.BaseQuestionUUID == "" && rule.BaseQuestionSequence == nil {
		return nil, fmt.Errorf("logic rule has no base question reference")
	}
	return &rule, nil
}

// ResolveBase 在题目集合内定位规则依赖的题
func (r *LogicRule) ResolveBase(defs []*QuestionDef) *QuestionDef {
	if r.BaseQuestionOriginalSequence != nil {
		for _, d := range defs {
			if d.OriginalSequenceNumber == *r.BaseQuestionOriginalSequence {
				return d
			}
		}
	}
	if r.BaseQuestionUUID != "" {
		for _, d := range defs {
			if d.UUID == r.BaseQuestionUUID {
				return d
			}
		}
	}
	if r.BaseQuestionSequence != nil {
		for _, d := range defs {
			if d.SequenceNumber == *r.BaseQuestionSequence {
				return d
			}
		}
	}
	return nil
}

// VisibilityEvaluator 给定一次提交的答案集合，判定每道题是否可见。
// answers 以题目 ID 为键，值为归一化后的答案。
type VisibilityEvaluator struct {
	defs    []*QuestionDef
	answers map[uint]*NormalizedAnswer
	memo    map[uint]bool
}

func NewVisibilityEvaluator(defs []*QuestionDef, answers map[uint]*NormalizedAnswer) *VisibilityEvaluator {
	return &VisibilityEvaluator{defs: defs, answers: answers, memo: make(map[uint]bool)}
}

// IsVisible 判定题目可见性。依赖题本身不可见或未作答时本题隐藏。
func (e *VisibilityEvaluator) IsVisible(def *QuestionDef) bool {
	if v, ok := e.memo[def.ID]; ok {
		return v
	}
	// 先占位防止规则成环导致无限递归
	e.memo[def.ID] = false
	v := e.evaluate(def)
	e.memo[def.ID] = v
	return v
}

func (e *VisibilityEvaluator) evaluate(def *QuestionDef) bool {
	rule := def.LogicRule
	if rule == nil {
		return true
	}
	base := rule.ResolveBase(e.defs)
	if base == nil {
		// 依赖题已被删除，规则失效,按可见处理
		return true
	}
	if !e.IsVisible(base) {
		return false
	}
	ans, ok := e.answers[base.ID]
	if !ok || ans == nil || ans.IsNotApplicable {
		return false
	}
	return rule.matches(ans)
}

func (r *LogicRule) matches(ans *NormalizedAnswer) bool {
	switch r.Condition {
	case "equals", "":
		if r.NumericValue != nil {
			return r.matchNumeric(ans)
		}
		return answerContains(ans, r.Value)
	case "not_equals":
		return !answerContains(ans, r.Value)
	case "any_of", "selected":
		return r.matchOptions(ans, false)
	case "all_of":
		return r.matchOptions(ans, true)
	case "numeric":
		return r.matchNumeric(ans)
	default:
		return false
	}
}

func (r *LogicRule) matchOptions(ans *NormalizedAnswer, requireAll bool) bool {
	opts := r.Options
	if len(opts) == 0 && r.Value != "" {
		opts = []string{r.Value}
	}
	if r.MatchType == "all" {
		requireAll = true
	}
	if len(opts) == 0 {
		return false
	}
	for _, opt := range opts {
		hit := answerContains(ans, opt)
		if requireAll && !hit {
			return false
		}
		if !requireAll && hit {
			return true
		}
	}
	return requireAll
}

func (r *LogicRule) matchNumeric(ans *NormalizedAnswer) bool {
	var target float64
	if r.NumericValue != nil {
		target = *r.NumericValue
	} else {
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
		if err != nil {
			return false
		}
		target = v
	}
	got, err := strconv.ParseFloat(strings.TrimSpace(ans.Text), 64)
	if err != nil {
		return false
	}
	switch r.Operator {
	case "", "eq":
		return got == target
	case "neq":
		return got != target
	case "gt":
		return got > target
	case "gte":
		return got >= target
	case "lt":
		return got < target
	case "lte":
		return got <= target
	default:
		return false
	}
}

func answerContains(ans *NormalizedAnswer, value string) bool {
	want := strings.TrimSpace(value)
	for _, v := range ans.Values() {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}

// SyncLogicSequences 重排题目后重写每条规则的序号键，保持依赖关系不变。
// newSequences 以题目 ID 为键给出重排后的序号。依赖题先在仍是旧序号的
// 集合里解析,再统一套用新序号回填三个键,仅带 baseQuestionSequence 的
// 旧规则才不会被改指到占了旧位置的另一道题。
func SyncLogicSequences(defs []*QuestionDef, newSequences map[uint]int) (map[uint]json.RawMessage, error) {
	bases := make(map[uint]*QuestionDef)
	for _, d := range defs {
		if d.LogicRule == nil {
			continue
		}
		if base := d.LogicRule.ResolveBase(defs); base != nil {
			bases[d.ID] = base
		}
	}

	for _, d := range defs {
		if seq, ok := newSequences[d.ID]; ok {
			d.SequenceNumber = seq
		}
	}

	updated := make(map[uint]json.RawMessage)
	for _, d := range defs {
		base, ok := bases[d.ID]
		if !ok {
			continue
		}
		rule := *d.LogicRule
		orig := base.OriginalSequenceNumber
		seq := base.SequenceNumber
		rule.BaseQuestionOriginalSequence = &orig
		rule.BaseQuestionUUID = base.UUID
		rule.BaseQuestionSequence = &seq
		raw, err := json.Marshal(&rule)
		if err != nil {
			return nil, err
		}
		updated[d.ID] = raw
		d.LogicRule = &rule
	}
	return updated, nil
}
