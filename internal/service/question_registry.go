package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"engage_backend/internal/model"
)

// QuestionDef 题目定义：解析模型行里按题型存放的 JSON 元数据后的规范形态。
// 校验、归一化和统计都基于它工作，不再回头碰 json.RawMessage。
type QuestionDef struct {
	ID                     uint
	SurveyID               uint
	UUID                   string
	Text                   string
	Type                   model.QuestionType
	SequenceNumber         int
	OriginalSequenceNumber int
	Required               bool

	ShowNotApplicable bool
	NotApplicableText string
	HasOtherOption    bool

	Options      []string
	ImageOptions []model.ImageOption
	GridRows     []string
	GridColumns  []model.GridColumn
	RankingItems []string

	RatingStart int
	RatingEnd   int
	RatingStep  int

	MinValue *float64
	MaxValue *float64
	MinDate  string
	MaxDate  string

	LogicRule *LogicRule
}

const defaultNotApplicableText = "Not Applicable"

// ParseQuestion 将存储行解析为 QuestionDef，并校验元数据与题型一致
func ParseQuestion(q *model.Question) (*QuestionDef, error) {
	def := &QuestionDef{
		ID:                     q.ID,
		SurveyID:               q.SurveyID,
		UUID:                   q.QuestionUUID,
		Text:                   q.QuestionText,
		Type:                   q.QuestionType,
		SequenceNumber:         q.SequenceNumber,
		OriginalSequenceNumber: q.OriginalSequenceNumber,
		Required:               q.Required,
		ShowNotApplicable:      q.NotApplicable,
		NotApplicableText:      q.NotApplicableText,
		HasOtherOption:         q.HasOtherOption,
		MinValue:               q.MinValue,
		MaxValue:               q.MaxValue,
		MinDate:                q.MinDate,
		MaxDate:                q.MaxDate,
	}

	if def.NotApplicableText == "" {
		def.NotApplicableText = defaultNotApplicableText
	}

	if err := unmarshalInto(q.Options, &def.Options); err != nil {
		return nil, fmt.Errorf("question %d: bad options: %w", q.ID, err)
	}
	// scale 题型的旧数据把选项放在 scale_points 字段
	if len(def.Options) == 0 && q.QuestionType == model.QuestionScale {
		if err := unmarshalInto(q.ScalePoints, &def.Options); err != nil {
			return nil, fmt.Errorf("question %d: bad scale_points: %w", q.ID, err)
		}
	}
	if err := unmarshalInto(q.ImageOptions, &def.ImageOptions); err != nil {
		return nil, fmt.Errorf("question %d: bad image_options: %w", q.ID, err)
	}
	if err := unmarshalInto(q.GridRows, &def.GridRows); err != nil {
		return nil, fmt.Errorf("question %d: bad grid_rows: %w", q.ID, err)
	}
	if err := unmarshalInto(q.GridColumns, &def.GridColumns); err != nil {
		return nil, fmt.Errorf("question %d: bad grid_columns: %w", q.ID, err)
	}
	if err := unmarshalInto(q.RankingItems, &def.RankingItems); err != nil {
		return nil, fmt.Errorf("question %d: bad ranking_items: %w", q.ID, err)
	}

	def.RatingStart, def.RatingEnd, def.RatingStep = ratingBounds(q)

	if len(q.ConditionalLogicRules) > 0 {
		rule, err := ParseLogicRule(q.ConditionalLogicRules)
		if err != nil {
			return nil, fmt.Errorf("question %d: bad conditional_logic_rules: %w", q.ID, err)
		}
		def.LogicRule = rule
	}

	if err := def.validateMetadata(); err != nil {
		return nil, fmt.Errorf("question %d: %w", q.ID, err)
	}

	return def, nil
}

// ParseQuestions 解析整份问卷的题目，保持序号顺序
func ParseQuestions(questions []model.Question) ([]*QuestionDef, error) {
	defs := make([]*QuestionDef, 0, len(questions))
	for i := range questions {
		def, err := ParseQuestion(&questions[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func unmarshalInto(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func ratingBounds(q *model.Question) (start, end, step int) {
	start, end, step = 1, 5, 1
	if q.QuestionType == model.QuestionNPS {
		start, end = 0, 10
	}
	if q.RatingStart != nil {
		start = *q.RatingStart
	}
	if q.RatingEnd != nil {
		end = *q.RatingEnd
	}
	if q.RatingStep != nil && *q.RatingStep > 0 {
		step = *q.RatingStep
	}
	return start, end, step
}

func (d *QuestionDef) validateMetadata() error {
	switch d.Type {
	case model.QuestionSingleChoice, model.QuestionMultiChoice, model.QuestionCheckbox,
		model.QuestionDropdown, model.QuestionScale:
		if len(d.Options) == 0 {
			return fmt.Errorf("%s question requires options", d.Type)
		}
	case model.QuestionSingleImageSelect, model.QuestionMultipleImageSelect:
		if len(d.ImageOptions) == 0 {
			return fmt.Errorf("%s question requires image_options", d.Type)
		}
	case model.QuestionInteractiveRanking:
		if len(d.RankingItems) < 2 {
			return fmt.Errorf("ranking question requires at least two items")
		}
	case model.QuestionRadioGrid, model.QuestionCheckboxGrid, model.QuestionStarRatingGrid:
		if len(d.GridRows) == 0 || len(d.GridColumns) == 0 {
			return fmt.Errorf("%s question requires grid_rows and grid_columns", d.Type)
		}
	case model.QuestionRating, model.QuestionStarRating, model.QuestionRatingScale, model.QuestionNPS:
		if d.RatingEnd <= d.RatingStart {
			return fmt.Errorf("%s question requires rating_end > rating_start", d.Type)
		}
	}
	return nil
}

// RatingSteps 评分类题型的离散刻度
func (d *QuestionDef) RatingSteps() []float64 {
	steps := []float64{}
	for v := d.RatingStart; v <= d.RatingEnd; v += d.RatingStep {
		steps = append(steps, float64(v))
	}
	return steps
}

// IsNotApplicableText 判断答案文本是否等于本题的 N/A 文案（忽略大小写和首尾空白）
func (d *QuestionDef) IsNotApplicableText(s string) bool {
	t := strings.TrimSpace(s)
	if strings.EqualFold(t, strings.TrimSpace(d.NotApplicableText)) {
		return true
	}
	// 两种存储形态等价：显式 N/A 文案或简写
	return strings.EqualFold(t, "N/A")
}

// ColumnLabels 网格列标签
func (d *QuestionDef) ColumnLabels() []string {
	labels := make([]string, len(d.GridColumns))
	for i, c := range d.GridColumns {
		labels[i] = c.Label
	}
	return labels
}

// ImageLabelFor 由存储的 hidden_label 反查展示标签和图片地址
func (d *QuestionDef) ImageLabelFor(hidden string) (label, imageURL string, ok bool) {
	for _, opt := range d.ImageOptions {
		if opt.HiddenLabel == hidden {
			return opt.Label, opt.ImageURL, true
		}
	}
	return "", "", false
}
