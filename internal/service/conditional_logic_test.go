package service

import (
	"encoding/json"
	"testing"

	"engage_backend/internal/model"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func questionSet() []*QuestionDef {
	base := &QuestionDef{
		ID:                     10,
		UUID:                   "uuid-base",
		Type:                   model.QuestionSingleChoice,
		Options:                []string{"Yes", "No"},
		SequenceNumber:         1,
		OriginalSequenceNumber: 1,
		NotApplicableText:      "Not Applicable",
	}
	dependent := &QuestionDef{
		ID:                     11,
		UUID:                   "uuid-dep",
		Type:                   model.QuestionOpenEnded,
		SequenceNumber:         2,
		OriginalSequenceNumber: 2,
		NotApplicableText:      "Not Applicable",
		LogicRule: &LogicRule{
			BaseQuestionOriginalSequence: intPtr(1),
			BaseQuestionUUID:             "uuid-base",
			BaseQuestionSequence:         intPtr(1),
			Condition:                    "equals",
			Value:                        "Yes",
		},
	}
	return []*QuestionDef{base, dependent}
}

func TestVisibilityEqualsCondition(t *testing.T) {
	defs := questionSet()

	eval := NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: "Yes"},
	})
	if !eval.IsVisible(defs[1]) {
		t.Error("dependent question should be visible when base answer matches")
	}

	eval = NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: "No"},
	})
	if eval.IsVisible(defs[1]) {
		t.Error("dependent question should be hidden when base answer differs")
	}

	// 依赖题未作答时隐藏
	eval = NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{})
	if eval.IsVisible(defs[1]) {
		t.Error("dependent question should be hidden when base is unanswered")
	}
}

func TestVisibilityMultiChoiceMatchTypes(t *testing.T) {
	defs := questionSet()
	defs[0].Type = model.QuestionCheckbox
	defs[1].LogicRule = &LogicRule{
		BaseQuestionOriginalSequence: intPtr(1),
		Condition:                    "any_of",
		Options:                      []string{"A", "B"},
	}

	eval := NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: `["B","C"]`},
	})
	if !eval.IsVisible(defs[1]) {
		t.Error("any match should show the question")
	}

	defs[1].LogicRule.MatchType = "all"
	eval = NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: `["B","C"]`},
	})
	if eval.IsVisible(defs[1]) {
		t.Error("all match should require every option")
	}
	eval = NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: `["A","B","C"]`},
	})
	if !eval.IsVisible(defs[1]) {
		t.Error("all options present should show the question")
	}
}

func TestVisibilityNumericOperators(t *testing.T) {
	defs := questionSet()
	defs[0].Type = model.QuestionNPS

	cases := []struct {
		operator string
		value    float64
		answer   string
		visible  bool
	}{
		{"gte", 9, "9", true},
		{"gte", 9, "8", false},
		{"lt", 7, "6", true},
		{"lt", 7, "7", false},
		{"eq", 5, "5", true},
		{"neq", 5, "5", false},
	}
	for _, tc := range cases {
		defs[1].LogicRule = &LogicRule{
			BaseQuestionOriginalSequence: intPtr(1),
			Condition:                    "numeric",
			Operator:                     tc.operator,
			NumericValue:                 floatPtr(tc.value),
		}
		eval := NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
			10: {Text: tc.answer},
		})
		if got := eval.IsVisible(defs[1]); got != tc.visible {
			t.Errorf("%s %v answer %s: visible = %v, want %v", tc.operator, tc.value, tc.answer, got, tc.visible)
		}
	}
}

func TestVisibilityResolutionOrder(t *testing.T) {
	defs := questionSet()
	// originalSequence 指向不存在的题时按 uuid 解析
	defs[1].LogicRule.BaseQuestionOriginalSequence = intPtr(99)

	eval := NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: "Yes"},
	})
	if !eval.IsVisible(defs[1]) {
		t.Error("uuid fallback should resolve the base question")
	}
}

func TestVisibilityHiddenBaseHidesDependent(t *testing.T) {
	defs := questionSet()
	chained := &QuestionDef{
		ID:                     12,
		UUID:                   "uuid-chained",
		Type:                   model.QuestionOpenEnded,
		SequenceNumber:         3,
		OriginalSequenceNumber: 3,
		NotApplicableText:      "Not Applicable",
		LogicRule: &LogicRule{
			BaseQuestionUUID: "uuid-dep",
			Condition:        "equals",
			Value:            "anything",
		},
	}
	defs = append(defs, chained)

	// 基题 10 回答 No,题 11 隐藏,因此题 12 也必须隐藏,哪怕有记录的答案
	eval := NewVisibilityEvaluator(defs, map[uint]*NormalizedAnswer{
		10: {Text: "No"},
		11: {Text: "anything"},
	})
	if eval.IsVisible(defs[2]) {
		t.Error("question depending on a hidden question must be hidden")
	}
}

// 重排并改写镜像序号后，同一份答案集的可见性判定必须保持不变
func TestReorderPreservesVisibility(t *testing.T) {
	defs := questionSet()
	answers := map[uint]*NormalizedAnswer{10: {Text: "Yes"}}

	before := NewVisibilityEvaluator(defs, answers).IsVisible(defs[1])

	// 重排：依赖题移到第 1 位，基题移到第 2 位
	updated, err := SyncLogicSequences(defs, map[uint]int{10: 2, 11: 1})
	if err != nil {
		t.Fatal(err)
	}
	raw, ok := updated[11]
	if !ok {
		t.Fatal("rule for the dependent question was not rewritten")
	}
	var rule LogicRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		t.Fatal(err)
	}
	if rule.BaseQuestionSequence == nil || *rule.BaseQuestionSequence != 2 {
		t.Errorf("mirrored sequence = %v, want 2", rule.BaseQuestionSequence)
	}
	if rule.BaseQuestionOriginalSequence == nil || *rule.BaseQuestionOriginalSequence != 1 {
		t.Errorf("original sequence = %v, want 1", rule.BaseQuestionOriginalSequence)
	}
	if rule.BaseQuestionUUID != "uuid-base" {
		t.Errorf("uuid = %q", rule.BaseQuestionUUID)
	}

	after := NewVisibilityEvaluator(defs, answers).IsVisible(defs[1])
	if before != after {
		t.Errorf("visibility changed across reorder: before=%v after=%v", before, after)
	}
}

// 只带 baseQuestionSequence 的旧规则必须按重排前的序号解析依赖题，
// 不能被改指到占了旧位置的另一道题
func TestReorderLegacySequenceOnlyRule(t *testing.T) {
	defs := []*QuestionDef{
		{ID: 1, UUID: "uuid-q1", SequenceNumber: 1, OriginalSequenceNumber: 1,
			Type: model.QuestionSingleChoice, Options: []string{"Yes", "No"}},
		{ID: 2, UUID: "uuid-q2", SequenceNumber: 2, OriginalSequenceNumber: 2,
			Type: model.QuestionOpenEnded},
		{ID: 3, UUID: "uuid-q3", SequenceNumber: 3, OriginalSequenceNumber: 3,
			Type: model.QuestionOpenEnded,
			LogicRule: &LogicRule{
				BaseQuestionSequence: intPtr(1),
				Condition:            "equals",
				Value:                "Yes",
			}},
	}

	// 第 1 题移到末位，第 2 题占据旧的第 1 位
	updated, err := SyncLogicSequences(defs, map[uint]int{2: 1, 3: 2, 1: 3})
	if err != nil {
		t.Fatal(err)
	}

	raw, ok := updated[3]
	if !ok {
		t.Fatal("legacy rule was not rewritten")
	}
	var rule LogicRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		t.Fatal(err)
	}
	if rule.BaseQuestionSequence == nil || *rule.BaseQuestionSequence != 3 {
		t.Errorf("mirrored sequence = %v, want 3 (the moved base question)", rule.BaseQuestionSequence)
	}
	if rule.BaseQuestionUUID != "uuid-q1" {
		t.Errorf("rule retargeted to %q, want uuid-q1", rule.BaseQuestionUUID)
	}
	if rule.BaseQuestionOriginalSequence == nil || *rule.BaseQuestionOriginalSequence != 1 {
		t.Errorf("original sequence = %v, want 1", rule.BaseQuestionOriginalSequence)
	}
}

func TestParseLogicRuleEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "{}"} {
		rule, err := ParseLogicRule(json.RawMessage(raw))
		if err != nil || rule != nil {
			t.Errorf("raw %q: got %+v, %v", raw, rule, err)
		}
	}
	if _, err := ParseLogicRule(json.RawMessage(`{"condition":"equals"}`)); err == nil {
		t.Error("rule without base reference should fail")
	}
}
