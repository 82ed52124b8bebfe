package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

// NormalizedAnswer 归一化后的答案，对应 Response 行的存储契约
type NormalizedAnswer struct {
	Text            string
	IsNotApplicable bool
	IsOther         bool
	OtherText       string
	FilePath        string
	FileType        string
}

// Values 把存储文本展开成值列表，供条件规则匹配和统计使用。
// JSON 数组按元素展开，其余当作单值。
func (a *NormalizedAnswer) Values() []string {
	if a == nil {
		return nil
	}
	t := strings.TrimSpace(a.Text)
	if strings.HasPrefix(t, "[") {
		var list []string
		if err := json.Unmarshal([]byte(t), &list); err == nil {
			return list
		}
	}
	if t == "" {
		return nil
	}
	return []string{t}
}

const otherMarker = "other:"

// NormalizeAnswer 把前端提交的原始答案转成规范存储形态。
// 空载荷返回 (nil, nil) 表示未作答；形状与题型不符返回 ErrInvalidAnswerShape。
func NormalizeAnswer(def *QuestionDef, payload interface{}) (*NormalizedAnswer, error) {
	if def.Type.IsContentOnly() {
		return nil, nil
	}
	if isEmptyPayload(payload) {
		return nil, nil
	}

	// 扁平字符串载荷先走 N/A 与 Other 检测
	if s, ok := payload.(string); ok {
		if def.IsNotApplicableText(s) {
			return &NormalizedAnswer{Text: def.NotApplicableText, IsNotApplicable: true}, nil
		}
		if strings.HasPrefix(s, otherMarker) {
			return &NormalizedAnswer{
				Text:      "Other",
				IsOther:   true,
				OtherText: strings.TrimSpace(strings.TrimPrefix(s, otherMarker)),
			}, nil
		}
	}

	switch def.Type {
	case model.QuestionSingleChoice, model.QuestionDropdown, model.QuestionScale,
		model.QuestionSingleImageSelect, model.QuestionDatePicker:
		return normalizeScalar(def, payload)
	case model.QuestionMultiChoice, model.QuestionCheckbox, model.QuestionMultipleImageSelect:
		return normalizeMultiSelect(def, payload)
	case model.QuestionRating, model.QuestionNumericalInput, model.QuestionRatingScale,
		model.QuestionNPS, model.QuestionStarRating:
		return normalizeNumeric(def, payload)
	case model.QuestionOpenEnded, model.QuestionSignature:
		return normalizeText(payload)
	case model.QuestionInteractiveRanking:
		return normalizeRanking(payload)
	case model.QuestionRadioGrid:
		return normalizeRadioGrid(payload)
	case model.QuestionCheckboxGrid:
		return normalizeCheckboxGrid(payload)
	case model.QuestionStarRatingGrid:
		return normalizeStarGrid(payload)
	case model.QuestionDocumentUpload:
		return normalizeDocuments(payload)
	default:
		return nil, fmt.Errorf("%w: unsupported question type %s", util.ErrInvalidAnswerShape, def.Type)
	}
}

func isEmptyPayload(payload interface{}) bool {
	switch v := payload.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

func normalizeScalar(def *QuestionDef, payload interface{}) (*NormalizedAnswer, error) {
	s, ok := scalarString(payload)
	if !ok {
		return nil, shapeErr(def, payload)
	}
	return &NormalizedAnswer{Text: strings.TrimSpace(s)}, nil
}

func normalizeMultiSelect(def *QuestionDef, payload interface{}) (*NormalizedAnswer, error) {
	var items []string
	switch v := payload.(type) {
	case []interface{}:
		for _, elem := range v {
			s, ok := scalarString(elem)
			if !ok {
				return nil, shapeErr(def, payload)
			}
			items = append(items, strings.TrimSpace(s))
		}
	case string:
		// 客户端偶尔发单个标量，仍统一落成 JSON 数组
		items = []string{strings.TrimSpace(v)}
	default:
		return nil, shapeErr(def, payload)
	}

	ans := &NormalizedAnswer{}
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if strings.HasPrefix(item, otherMarker) {
			ans.IsOther = true
			ans.OtherText = strings.TrimSpace(strings.TrimPrefix(item, otherMarker))
			kept = append(kept, "Other")
			continue
		}
		if def.IsNotApplicableText(item) {
			ans.IsNotApplicable = true
		}
		kept = append(kept, item)
	}
	raw, err := json.Marshal(kept)
	if err != nil {
		return nil, err
	}
	ans.Text = string(raw)
	return ans, nil
}

func normalizeNumeric(def *QuestionDef, payload interface{}) (*NormalizedAnswer, error) {
	switch v := payload.(type) {
	case float64:
		return &NormalizedAnswer{Text: formatNumber(v)}, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, shapeErr(def, payload)
		}
		return &NormalizedAnswer{Text: formatNumber(n)}, nil
	default:
		return nil, shapeErr(def, payload)
	}
}

func normalizeText(payload interface{}) (*NormalizedAnswer, error) {
	s, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected text", util.ErrInvalidAnswerShape)
	}
	return &NormalizedAnswer{Text: s}, nil
}

// normalizeRanking 排序题存成 {条目: 名次} 的 JSON 对象。
// 历史客户端会把字符串化的对象包在单元素数组里，这里拆包兼容。
func normalizeRanking(payload interface{}) (*NormalizedAnswer, error) {
	if list, ok := payload.([]interface{}); ok && len(list) == 1 {
		if s, ok := list[0].(string); ok {
			var inner map[string]interface{}
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				payload = inner
			}
		} else if m, ok := list[0].(map[string]interface{}); ok {
			payload = m
		}
	}
	if s, ok := payload.(string); ok {
		var inner map[string]interface{}
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			payload = inner
		}
	}
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: ranking expects an item to rank map", util.ErrInvalidAnswerShape)
	}
	ranks := make(map[string]int, len(m))
	for item, raw := range m {
		switch v := raw.(type) {
		case float64:
			ranks[item] = int(v)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: ranking rank must be an integer", util.ErrInvalidAnswerShape)
			}
			ranks[item] = n
		default:
			return nil, fmt.Errorf("%w: ranking rank must be an integer", util.ErrInvalidAnswerShape)
		}
	}
	rawOut, err := json.Marshal(ranks)
	if err != nil {
		return nil, err
	}
	return &NormalizedAnswer{Text: string(rawOut)}, nil
}

func normalizeRadioGrid(payload interface{}) (*NormalizedAnswer, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: radio grid expects a row to column map", util.ErrInvalidAnswerShape)
	}
	out := make(map[string]string, len(m))
	for row, raw := range m {
		s, ok := scalarString(raw)
		if !ok {
			return nil, fmt.Errorf("%w: radio grid cell must be a column label", util.ErrInvalidAnswerShape)
		}
		out[row] = strings.TrimSpace(s)
	}
	rawOut, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &NormalizedAnswer{Text: string(rawOut)}, nil
}

func normalizeCheckboxGrid(payload interface{}) (*NormalizedAnswer, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: checkbox grid expects a row to columns map", util.ErrInvalidAnswerShape)
	}
	out := make(map[string]interface{}, len(m))
	for row, raw := range m {
		switch v := raw.(type) {
		case []interface{}:
			cols := make([]string, 0, len(v))
			for _, elem := range v {
				s, ok := scalarString(elem)
				if !ok {
					return nil, fmt.Errorf("%w: checkbox grid cell must be a column label", util.ErrInvalidAnswerShape)
				}
				cols = append(cols, strings.TrimSpace(s))
			}
			out[row] = cols
		case string:
			// 行级 N/A 存成字符串
			out[row] = strings.TrimSpace(v)
		default:
			return nil, fmt.Errorf("%w: checkbox grid row must be a list or N/A", util.ErrInvalidAnswerShape)
		}
	}
	rawOut, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &NormalizedAnswer{Text: string(rawOut)}, nil
}

func normalizeStarGrid(payload interface{}) (*NormalizedAnswer, error) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: star rating grid expects a nested row map", util.ErrInvalidAnswerShape)
	}
	out := make(map[string]map[string]interface{}, len(m))
	for row, raw := range m {
		cells, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: star rating grid row must be a column map", util.ErrInvalidAnswerShape)
		}
		rowOut := make(map[string]interface{}, len(cells))
		for col, cell := range cells {
			switch v := cell.(type) {
			case float64:
				rowOut[col] = v
			case string:
				rowOut[col] = strings.TrimSpace(v)
			default:
				return nil, fmt.Errorf("%w: star rating must be numeric or N/A", util.ErrInvalidAnswerShape)
			}
		}
		out[row] = rowOut
	}
	rawOut, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &NormalizedAnswer{Text: string(rawOut)}, nil
}

// UploadedDocument 文件题答案里的单个文件
type UploadedDocument struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

func normalizeDocuments(payload interface{}) (*NormalizedAnswer, error) {
	var docs []UploadedDocument
	appendDoc := func(raw interface{}) bool {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return false
		}
		doc := UploadedDocument{}
		if s, ok := m["url"].(string); ok {
			doc.URL = s
		}
		if s, ok := m["type"].(string); ok {
			doc.Type = s
		}
		if s, ok := m["name"].(string); ok {
			doc.Name = s
		}
		if doc.URL == "" {
			return false
		}
		docs = append(docs, doc)
		return true
	}

	switch v := payload.(type) {
	case []interface{}:
		for _, elem := range v {
			if !appendDoc(elem) {
				return nil, fmt.Errorf("%w: document entry requires a url", util.ErrInvalidAnswerShape)
			}
		}
	case map[string]interface{}:
		if !appendDoc(v) {
			return nil, fmt.Errorf("%w: document entry requires a url", util.ErrInvalidAnswerShape)
		}
	default:
		return nil, fmt.Errorf("%w: document upload expects a file list", util.ErrInvalidAnswerShape)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	rawOut, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	return &NormalizedAnswer{Text: string(rawOut), FilePath: docs[0].URL, FileType: docs[0].Type}, nil
}

func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return formatNumber(s), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func shapeErr(def *QuestionDef, payload interface{}) error {
	return fmt.Errorf("%w: %T payload for %s question", util.ErrInvalidAnswerShape, payload, def.Type)
}
