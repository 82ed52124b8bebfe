package service

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

func singleChoiceDef() *QuestionDef {
	return &QuestionDef{
		ID:                1,
		Type:              model.QuestionSingleChoice,
		Options:           []string{"Red", "Green", "Blue"},
		NotApplicableText: "Not Applicable",
	}
}

func TestNormalizeAnswerEmptyPayloads(t *testing.T) {
	def := singleChoiceDef()
	for _, payload := range []interface{}{nil, "", "   ", []interface{}{}, map[string]interface{}{}} {
		ans, err := NormalizeAnswer(def, payload)
		if err != nil {
			t.Fatalf("payload %v: unexpected error %v", payload, err)
		}
		if ans != nil {
			t.Fatalf("payload %v: expected no answer, got %+v", payload, ans)
		}
	}
}

func TestNormalizeAnswerNotApplicable(t *testing.T) {
	def := singleChoiceDef()
	for _, payload := range []string{"Not Applicable", "not applicable", "  N/A  "} {
		ans, err := NormalizeAnswer(def, payload)
		if err != nil {
			t.Fatalf("payload %q: %v", payload, err)
		}
		if ans == nil || !ans.IsNotApplicable {
			t.Fatalf("payload %q: expected N/A answer, got %+v", payload, ans)
		}
		if ans.Text != "Not Applicable" {
			t.Errorf("payload %q: canonical text = %q", payload, ans.Text)
		}
	}
}

func TestNormalizeAnswerOtherMarker(t *testing.T) {
	def := singleChoiceDef()
	def.HasOtherOption = true

	ans, err := NormalizeAnswer(def, "other: something else")
	if err != nil {
		t.Fatal(err)
	}
	if !ans.IsOther || ans.OtherText != "something else" || ans.Text != "Other" {
		t.Fatalf("unexpected other answer: %+v", ans)
	}
}

func TestNormalizeAnswerContentOnly(t *testing.T) {
	def := &QuestionDef{Type: model.QuestionContentText}
	ans, err := NormalizeAnswer(def, "anything")
	if err != nil || ans != nil {
		t.Fatalf("content question must not produce a response, got %+v, %v", ans, err)
	}
}

func TestNormalizeMultiSelectAlwaysArray(t *testing.T) {
	def := &QuestionDef{Type: model.QuestionCheckbox, Options: []string{"A", "B"}, NotApplicableText: "Not Applicable"}

	// 单个标量也要落成 JSON 数组
	ans, err := NormalizeAnswer(def, "A")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	if err := json.Unmarshal([]byte(ans.Text), &got); err != nil {
		t.Fatalf("stored value is not a JSON array: %q", ans.Text)
	}
	if !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("got %v", got)
	}

	ans, err = NormalizeAnswer(def, []interface{}{"A", "other: custom"})
	if err != nil {
		t.Fatal(err)
	}
	if !ans.IsOther || ans.OtherText != "custom" {
		t.Fatalf("other not detected in list: %+v", ans)
	}
	if err := json.Unmarshal([]byte(ans.Text), &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"A", "Other"}) {
		t.Errorf("got %v", got)
	}
}

func TestNormalizeNumeric(t *testing.T) {
	def := &QuestionDef{Type: model.QuestionNPS, RatingStart: 0, RatingEnd: 10, RatingStep: 1, NotApplicableText: "Not Applicable"}

	ans, err := NormalizeAnswer(def, float64(9))
	if err != nil || ans.Text != "9" {
		t.Fatalf("got %+v, %v", ans, err)
	}
	ans, err = NormalizeAnswer(def, "7.5")
	if err != nil || ans.Text != "7.5" {
		t.Fatalf("got %+v, %v", ans, err)
	}
	if _, err = NormalizeAnswer(def, "not a number"); !errors.Is(err, util.ErrInvalidAnswerShape) {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestNormalizeRankingUnwrapsWrappedMap(t *testing.T) {
	def := &QuestionDef{Type: model.QuestionInteractiveRanking, RankingItems: []string{"X", "Y"}, NotApplicableText: "Not Applicable"}

	// 单元素数组包裹字符串化对象的历史形态
	ans, err := NormalizeAnswer(def, []interface{}{`{"X": 1, "Y": 2}`})
	if err != nil {
		t.Fatal(err)
	}
	var ranks map[string]int
	if err := json.Unmarshal([]byte(ans.Text), &ranks); err != nil {
		t.Fatal(err)
	}
	if ranks["X"] != 1 || ranks["Y"] != 2 {
		t.Errorf("got %v", ranks)
	}

	ans, err = NormalizeAnswer(def, map[string]interface{}{"X": float64(2), "Y": float64(1)})
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(ans.Text), &ranks); err != nil {
		t.Fatal(err)
	}
	if ranks["X"] != 2 || ranks["Y"] != 1 {
		t.Errorf("got %v", ranks)
	}
}

func TestNormalizeInvalidShape(t *testing.T) {
	def := singleChoiceDef()
	_, err := NormalizeAnswer(def, map[string]interface{}{"unexpected": "dict"})
	if !errors.Is(err, util.ErrInvalidAnswerShape) {
		t.Fatalf("expected ErrInvalidAnswerShape, got %v", err)
	}
}

func TestNormalizeDocuments(t *testing.T) {
	def := &QuestionDef{Type: model.QuestionDocumentUpload, NotApplicableText: "Not Applicable"}
	ans, err := NormalizeAnswer(def, []interface{}{
		map[string]interface{}{"url": "/uploads/a.pdf", "type": "application/pdf", "name": "a.pdf"},
		map[string]interface{}{"url": "/uploads/b.png", "type": "image/png"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ans.FilePath != "/uploads/a.pdf" || ans.FileType != "application/pdf" {
		t.Errorf("primary file not extracted: %+v", ans)
	}
	var docs []UploadedDocument
	if err := json.Unmarshal([]byte(ans.Text), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d docs", len(docs))
	}
}

func TestNormalizeGrids(t *testing.T) {
	radio := &QuestionDef{Type: model.QuestionRadioGrid, GridRows: []string{"Speed"}, GridColumns: []model.GridColumn{{Label: "Good"}}, NotApplicableText: "Not Applicable"}
	ans, err := NormalizeAnswer(radio, map[string]interface{}{"Speed": "Good"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(ans.Text), &m); err != nil || m["Speed"] != "Good" {
		t.Fatalf("got %q, %v", ans.Text, err)
	}

	star := &QuestionDef{Type: model.QuestionStarRatingGrid, GridRows: []string{"Speed"}, GridColumns: []model.GridColumn{{Label: "App"}}, NotApplicableText: "Not Applicable"}
	ans, err = NormalizeAnswer(star, map[string]interface{}{"Speed": map[string]interface{}{"App": float64(4)}})
	if err != nil {
		t.Fatal(err)
	}
	var nested map[string]map[string]interface{}
	if err := json.Unmarshal([]byte(ans.Text), &nested); err != nil {
		t.Fatal(err)
	}
	if nested["Speed"]["App"].(float64) != 4 {
		t.Errorf("got %v", nested)
	}
}
