package model

import (
	"encoding/json"
	"time"
)

// OptionCount 单选类分布条目；百分比以含 N/A 的总响应数为分母
type OptionCount struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MultiOptionCount 多选类分布条目
type MultiOptionCount struct {
	Option                 string  `json:"option"`
	HiddenLabel            string  `json:"hidden_label,omitempty"`
	ImageURL               string  `json:"image_url,omitempty"`
	Count                  int     `json:"count"`
	PercentageOfResponses  float64 `json:"percentage_of_responses"`
	PercentageOfSelections float64 `json:"percentage_of_selections"`
}

// PairCount 选项两两共现
type PairCount struct {
	Options [2]string `json:"options"`
	Count   int       `json:"count"`
}

// NumericStats 数值题统计摘要；N/A 计入 count_na，不进均值
type NumericStats struct {
	CountValid int     `json:"count_valid"`
	CountNA    int     `json:"count_na"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	StdDev     float64 `json:"std_dev"`
}

// ValueCount 数值分布表行
type ValueCount struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// NPSSegments promoters ≥9，passives 7-8，detractors ≤6
type NPSSegments struct {
	Promoters  int     `json:"promoters"`
	Passives   int     `json:"passives"`
	Detractors int     `json:"detractors"`
	NPSScore   float64 `json:"nps_score"`
}

// TextResponseEntry 开放题最新响应
type TextResponseEntry struct {
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// AverageRank 排序题单项平均名次
type AverageRank struct {
	Item        string  `json:"item"`
	AverageRank float64 `json:"average_rank"`
	Count       int     `json:"count"`
}

type SingleSelectAnalytics struct {
	TotalResponses int           `json:"total_responses"`
	Distribution   []OptionCount `json:"distribution"`
}

type MultiSelectAnalytics struct {
	TotalResponses  int                `json:"total_responses"`
	TotalSelections int                `json:"total_selections"`
	Distribution    []MultiOptionCount `json:"distribution"`
	TopPairs        []PairCount        `json:"top_pairs"`
}

type NumericAnalytics struct {
	Stats        NumericStats `json:"stats"`
	Distribution []ValueCount `json:"distribution"`
	Segments     *NPSSegments `json:"segments,omitempty"`
}

type TextAnalytics struct {
	TotalResponses  int                 `json:"total_responses"`
	LatestResponses []TextResponseEntry `json:"latest_responses"`
	TopWords        []WordCount         `json:"top_words"`
}

type RankingAnalytics struct {
	Items          []string      `json:"items"`
	ValidResponses int           `json:"valid_responses"`
	AverageRanks   []AverageRank `json:"average_ranks"`
	// RankMatrix[i][r] = 第 i 个定义项被排在第 r+1 名的次数
	RankMatrix [][]int  `json:"rank_distribution_matrix"`
	Warnings   []string `json:"warnings,omitempty"`
}

// GridCoOccurrence checkbox-grid 行内列共现
type GridCoOccurrence struct {
	Row     string    `json:"row"`
	Columns [2]string `json:"columns"`
	Count   int       `json:"count"`
}

type GridAnalytics struct {
	Rows           []string           `json:"rows"`
	Columns        []string           `json:"columns"`
	TotalResponses int                `json:"total_responses"`
	Values         [][]int            `json:"values,omitempty"`
	RowTotals      []int              `json:"row_totals,omitempty"`
	ColumnTotals   []int              `json:"column_totals,omitempty"`
	CellAverages   [][]float64        `json:"cell_averages,omitempty"`
	CountValues    [][]int            `json:"count_values,omitempty"`
	RowAverages    []float64          `json:"row_averages,omitempty"`
	ColumnAverages []float64          `json:"column_averages,omitempty"`
	CoOccurrences  []GridCoOccurrence `json:"co_occurrences,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// AnalyticsError 单题处理错误，内联在文档里而非中断整个报告
type AnalyticsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type QuestionAnalytics struct {
	QuestionID     uint            `json:"question_id"`
	SequenceNumber int             `json:"sequence_number"`
	QuestionText   string          `json:"question_text"`
	QuestionType   QuestionType    `json:"question_type"`
	Data           interface{}     `json:"data,omitempty"`
	Error          *AnalyticsError `json:"error,omitempty"`
}

type SurveyAnalytics struct {
	SurveyID       uint                          `json:"survey_id"`
	TotalResponses int                           `json:"total_responses"`
	Analytics      map[string]*QuestionAnalytics `json:"analytics"`
}

// FilterValues 过滤值，接受标量或数组两种 JSON 形态
type FilterValues []string

func (f *FilterValues) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = FilterValues{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = FilterValues(many)
	return nil
}

func (f FilterValues) Contains(v string) bool {
	for _, x := range f {
		if x == v {
			return true
		}
	}
	return false
}

// AnalyticsFilters 人口统计过滤条件，各字段之间取交集
type AnalyticsFilters struct {
	AgeGroup  FilterValues `json:"age_group,omitempty"`
	Gender    FilterValues `json:"gender,omitempty"`
	Location  FilterValues `json:"location,omitempty"`
	Education FilterValues `json:"education,omitempty"`
	Company   FilterValues `json:"company,omitempty"`
	CohortTag FilterValues `json:"cohort_tag,omitempty"`
}

// IsEmpty 是否未设置任何过滤条件
func (f *AnalyticsFilters) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.AgeGroup) == 0 && len(f.Gender) == 0 && len(f.Location) == 0 &&
		len(f.Education) == 0 && len(f.Company) == 0 && len(f.CohortTag) == 0
}

// Matches 判断一条提交快照是否满足全部过滤条件
func (f *AnalyticsFilters) Matches(sub *Submission) bool {
	if f.IsEmpty() {
		return true
	}
	if len(f.AgeGroup) > 0 && !f.AgeGroup.Contains(sub.AgeGroup) {
		return false
	}
	if len(f.Gender) > 0 && !f.Gender.Contains(sub.Gender) {
		return false
	}
	if len(f.Location) > 0 && !f.Location.Contains(sub.Location) {
		return false
	}
	if len(f.Education) > 0 && !f.Education.Contains(sub.Education) {
		return false
	}
	if len(f.Company) > 0 && !f.Company.Contains(sub.Company) {
		return false
	}
	if len(f.CohortTag) > 0 && !f.CohortTag.Contains(sub.CohortTag) {
		return false
	}
	return true
}
