package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"engage_backend/internal/model"
	"engage_backend/internal/util"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ExportResult 导出产物
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService 把问卷的全部提交导出为平面表格。
// 每条提交一行，固定的元数据列在前，之后按题目序号每题一列。
type ExportService struct {
	store  AnalyticsStore
	logger *zap.Logger
}

func NewExportService(store AnalyticsStore, logger *zap.Logger) *ExportService {
	return &ExportService{store: store, logger: logger}
}

var exportMetaHeaders = []string{
	"Submission ID", "Submitted At", "User ID", "Complete", "AI Generated",
	"Age Group", "Gender", "Location", "Education", "Company", "Cohort Tag",
	"Device Type", "Duration (s)",
}

func (s *ExportService) Export(ctx context.Context, surveyID uint, format string) (*ExportResult, error) {
	survey, err := s.store.GetSurveyWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	defs, err := ParseQuestions(survey.Questions)
	if err != nil {
		return nil, err
	}
	submissions, err := s.store.ListSubmissionsWithResponses(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	// 纯展示题不占列
	columns := make([]*QuestionDef, 0, len(defs))
	for _, d := range defs {
		if !d.Type.IsContentOnly() {
			columns = append(columns, d)
		}
	}

	header := append(append([]string{}, exportMetaHeaders...), questionHeaders(columns)...)
	rows := make([][]string, 0, len(submissions))
	for i := range submissions {
		rows = append(rows, exportRow(&submissions[i], columns))
	}

	base := fmt.Sprintf("survey_%d_responses", surveyID)
	switch format {
	case ExportFormatXLSX:
		data, err := renderXLSX(header, rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case ExportFormatCSV, "":
		data, err := renderCSV(header, rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{
			FileName:    base + ".csv",
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrUnsupportedFormat, format)
	}
}

func questionHeaders(columns []*QuestionDef) []string {
	headers := make([]string, len(columns))
	for i, d := range columns {
		headers[i] = fmt.Sprintf("Q%d: %s", d.SequenceNumber, d.Text)
	}
	return headers
}

func exportRow(sub *model.Submission, columns []*QuestionDef) []string {
	byQuestion := make(map[uint]*model.Response, len(sub.Responses))
	for i := range sub.Responses {
		byQuestion[sub.Responses[i].QuestionID] = &sub.Responses[i]
	}

	userID := ""
	if sub.UserID != nil {
		userID = strconv.FormatUint(uint64(*sub.UserID), 10)
	}
	duration := ""
	if sub.Duration != nil {
		duration = strconv.Itoa(*sub.Duration)
	}

	row := []string{
		strconv.FormatUint(uint64(sub.ID), 10),
		sub.SubmittedAt.Format(util.TimeFormat),
		userID,
		strconv.FormatBool(sub.IsComplete),
		strconv.FormatBool(sub.IsAIGenerated),
		sub.AgeGroup,
		sub.Gender,
		sub.Location,
		sub.Education,
		sub.Company,
		sub.CohortTag,
		sub.DeviceType,
		duration,
	}
	for _, def := range columns {
		row = append(row, exportCell(def, byQuestion[def.ID]))
	}
	return row
}

// exportCell 按题型把规范存储值渲染成人类可读的单元格
func exportCell(def *QuestionDef, resp *model.Response) string {
	if resp == nil {
		return ""
	}
	if resp.IsNotApplicable {
		return def.NotApplicableText
	}
	text := resp.ResponseText
	if resp.IsOther && resp.OtherText != "" {
		return "Other: " + resp.OtherText
	}

	switch def.Type {
	case model.QuestionMultiChoice, model.QuestionCheckbox, model.QuestionMultipleImageSelect:
		values := (&NormalizedAnswer{Text: text}).Values()
		if def.Type == model.QuestionMultipleImageSelect {
			values = expandImageLabels(def, values)
		}
		return strings.Join(values, ", ")
	case model.QuestionSingleImageSelect:
		if label, _, ok := def.ImageLabelFor(text); ok {
			return label
		}
		return text
	case model.QuestionInteractiveRanking:
		return renderRankingCell(text)
	case model.QuestionRadioGrid, model.QuestionCheckboxGrid, model.QuestionStarRatingGrid:
		return renderGridCell(text)
	case model.QuestionDocumentUpload:
		return renderDocumentCell(text)
	default:
		return text
	}
}

func expandImageLabels(def *QuestionDef, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if label, _, ok := def.ImageLabelFor(v); ok {
			out[i] = label
		} else {
			out[i] = v
		}
	}
	return out
}

func renderRankingCell(text string) string {
	var ranks map[string]int
	if err := json.Unmarshal([]byte(text), &ranks); err != nil {
		return text
	}
	type entry struct {
		item string
		rank int
	}
	entries := make([]entry, 0, len(ranks))
	for item, rank := range ranks {
		entries = append(entries, entry{item, rank})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rank < entries[j].rank })
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%d. %s", e.rank, e.item)
	}
	return strings.Join(parts, ", ")
}

func renderGridCell(text string) string {
	var grid map[string]interface{}
	if err := json.Unmarshal([]byte(text), &grid); err != nil {
		return text
	}
	rows := make([]string, 0, len(grid))
	for row := range grid {
		rows = append(rows, row)
	}
	sort.Strings(rows)
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, fmt.Sprintf("%s: %s", row, renderGridValue(grid[row])))
	}
	return strings.Join(parts, "; ")
}

func renderGridValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, elem := range val {
			parts = append(parts, fmt.Sprint(elem))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		cols := make([]string, 0, len(val))
		for col := range val {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		parts := make([]string, 0, len(cols))
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf("%s=%v", col, val[col]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func renderDocumentCell(text string) string {
	var docs []UploadedDocument
	if err := json.Unmarshal([]byte(text), &docs); err != nil {
		return text
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Name != "" {
			names = append(names, doc.Name)
			continue
		}
		names = append(names, path.Base(doc.URL))
	}
	return strings.Join(names, ", ")
}

func renderCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Responses"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
