package service

import (
	"testing"

	"engage_backend/internal/model"
)

func choiceDef() *QuestionDef {
	return &QuestionDef{
		ID:                1,
		Type:              model.QuestionSingleChoice,
		Options:           []string{"Red", "Green", "Blue"},
		ShowNotApplicable: true,
		NotApplicableText: "Not Applicable",
	}
}

func TestSingleSelectIncludesZeroCountOptions(t *testing.T) {
	def := choiceDef()
	out := aggregateSingleSelect(def, makeRecords(def, "Red", "Red", "Blue", "NA"))

	if out.TotalResponses != 4 {
		t.Fatalf("total = %d", out.TotalResponses)
	}
	if len(out.Distribution) != 4 {
		t.Fatalf("rows = %d: %+v", len(out.Distribution), out.Distribution)
	}

	byOption := map[string]model.OptionCount{}
	for _, row := range out.Distribution {
		byOption[row.Option] = row
	}
	if byOption["Green"].Count != 0 || byOption["Green"].Percentage != 0 {
		t.Errorf("Green: %+v", byOption["Green"])
	}
	// 百分比分母包含 N/A
	if byOption["Red"].Percentage != 50 {
		t.Errorf("Red percentage = %v", byOption["Red"].Percentage)
	}
	if byOption["Not Applicable"].Count != 1 || byOption["Not Applicable"].Percentage != 25 {
		t.Errorf("NA row: %+v", byOption["Not Applicable"])
	}
}

func TestSingleSelectUndefinedValueAppended(t *testing.T) {
	def := choiceDef()
	out := aggregateSingleSelect(def, makeRecords(def, "Red", "Purple"))

	// 未定义的值排在已定义选项之后
	if out.Distribution[3].Option != "Purple" || out.Distribution[3].Count != 1 {
		t.Errorf("distribution: %+v", out.Distribution)
	}
}

func TestSingleSelectNARowOnlyWhenRelevant(t *testing.T) {
	def := choiceDef()
	def.ShowNotApplicable = false
	out := aggregateSingleSelect(def, makeRecords(def, "Red"))
	for _, row := range out.Distribution {
		if row.Option == def.NotApplicableText {
			t.Error("NA row should be absent when disabled and unused")
		}
	}
}

func TestMultiSelectDistributionAndPairs(t *testing.T) {
	def := &QuestionDef{
		ID:                2,
		Type:              model.QuestionCheckbox,
		Options:           []string{"A", "B", "C"},
		NotApplicableText: "Not Applicable",
	}
	records := []ResponseRecord{
		{Resp: &model.Response{QuestionID: 2, ResponseText: `["A","B"]`}, Sub: &model.Submission{}},
		{Resp: &model.Response{QuestionID: 2, ResponseText: `["A","B","C"]`}, Sub: &model.Submission{}},
		{Resp: &model.Response{QuestionID: 2, ResponseText: `["C"]`}, Sub: &model.Submission{}},
	}
	out := aggregateMultiSelect(def, records)

	if out.TotalResponses != 3 || out.TotalSelections != 6 {
		t.Fatalf("totals: %d responses, %d selections", out.TotalResponses, out.TotalSelections)
	}

	byOption := map[string]model.MultiOptionCount{}
	for _, row := range out.Distribution {
		byOption[row.Option] = row
	}
	a := byOption["A"]
	if a.Count != 2 || a.PercentageOfResponses != 66.67 || a.PercentageOfSelections != 33.33 {
		t.Errorf("A: %+v", a)
	}

	if len(out.TopPairs) != 3 {
		t.Fatalf("pairs: %+v", out.TopPairs)
	}
	// [A B] 共现两次排第一，其余按字典序
	if out.TopPairs[0].Options != [2]string{"A", "B"} || out.TopPairs[0].Count != 2 {
		t.Errorf("top pair: %+v", out.TopPairs[0])
	}
	if out.TopPairs[1].Options != [2]string{"A", "C"} || out.TopPairs[2].Options != [2]string{"B", "C"} {
		t.Errorf("tie order: %+v", out.TopPairs[1:])
	}
}

func TestMultiSelectPairLimit(t *testing.T) {
	pairCounts := make(map[[2]string]int)
	for i := 0; i < 30; i++ {
		pairCounts[[2]string{string(rune('a' + i)), string(rune('A' + i))}] = i + 1
	}
	pairs := topPairs(pairCounts, 15)
	if len(pairs) != 15 {
		t.Fatalf("len = %d", len(pairs))
	}
	if pairs[0].Count != 30 {
		t.Errorf("first count = %d", pairs[0].Count)
	}
}

func TestImageSelectExpandsHiddenLabels(t *testing.T) {
	def := &QuestionDef{
		ID:   3,
		Type: model.QuestionSingleImageSelect,
		ImageOptions: []model.ImageOption{
			{HiddenLabel: "img-1", Label: "Sunset", ImageURL: "https://cdn.example.com/s.jpg"},
			{HiddenLabel: "img-2", Label: "Forest", ImageURL: "https://cdn.example.com/f.jpg"},
		},
		NotApplicableText: "Not Applicable",
	}
	records := []ResponseRecord{
		{Resp: &model.Response{QuestionID: 3, ResponseText: "img-1"}, Sub: &model.Submission{}},
		{Resp: &model.Response{QuestionID: 3, ResponseText: "img-1"}, Sub: &model.Submission{}},
	}
	out := aggregateImageSelect(def, records, false)

	if out.TotalResponses != 2 {
		t.Fatalf("total = %d", out.TotalResponses)
	}
	first := out.Distribution[0]
	if first.Option != "Sunset" || first.HiddenLabel != "img-1" || first.ImageURL != "https://cdn.example.com/s.jpg" {
		t.Errorf("expansion: %+v", first)
	}
	if out.Distribution[1].Count != 0 {
		t.Errorf("unselected image option must still appear: %+v", out.Distribution[1])
	}
}

func TestImageSelectMulti(t *testing.T) {
	def := &QuestionDef{
		ID:   4,
		Type: model.QuestionMultipleImageSelect,
		ImageOptions: []model.ImageOption{
			{HiddenLabel: "img-1", Label: "Sunset", ImageURL: "u1"},
			{HiddenLabel: "img-2", Label: "Forest", ImageURL: "u2"},
		},
		NotApplicableText: "Not Applicable",
	}
	records := []ResponseRecord{
		{Resp: &model.Response{QuestionID: 4, ResponseText: `["img-1","img-2"]`}, Sub: &model.Submission{}},
	}
	out := aggregateImageSelect(def, records, true)
	if out.TotalSelections != 2 {
		t.Fatalf("selections = %d", out.TotalSelections)
	}
}
