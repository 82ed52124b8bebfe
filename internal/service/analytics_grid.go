package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"engage_backend/internal/model"
)

var (
	rowKeyPattern = regexp.MustCompile(`^row-(\d+)$`)
	colKeyPattern = regexp.MustCompile(`^col(?:umn)?-(\d+)$`)
)

// gridIndex 网格行列定位器。答案里的键先按标签匹配（忽略大小写和首尾空白），
// 再接受 row-N / col-N 形式，最后接受裸下标兜底。
type gridIndex struct {
	labels  []string
	byLabel map[string]int
	pattern *regexp.Regexp
}

func newGridIndex(labels []string, pattern *regexp.Regexp) *gridIndex {
	idx := &gridIndex{labels: labels, byLabel: make(map[string]int, len(labels)), pattern: pattern}
	for i, l := range labels {
		idx.byLabel[strings.ToLower(strings.TrimSpace(l))] = i
	}
	return idx
}

func (g *gridIndex) resolve(key string) (int, bool) {
	k := strings.TrimSpace(key)
	if i, ok := g.byLabel[strings.ToLower(k)]; ok {
		return i, true
	}
	if m := g.pattern.FindStringSubmatch(strings.ToLower(k)); m != nil {
		return g.bound(m[1])
	}
	if _, err := strconv.Atoi(k); err == nil {
		return g.bound(k)
	}
	return 0, false
}

// bound 下标既可能从 0 也可能从 1 起算,优先按 0 起算落在范围内的取值
func (g *gridIndex) bound(num string) (int, bool) {
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	if n >= 0 && n < len(g.labels) {
		return n, true
	}
	if n >= 1 && n <= len(g.labels) {
		return n - 1, true
	}
	return 0, false
}

func newGridAnalytics(def *QuestionDef) *model.GridAnalytics {
	return &model.GridAnalytics{
		Rows:    def.GridRows,
		Columns: def.ColumnLabels(),
	}
}

func makeIntMatrix(rows, cols int) [][]int {
	m := make([][]int, rows)
	for i := range m {
		m[i] = make([]int, cols)
	}
	return m
}

// aggregateRadioGrid 单选网格：每条答案每行最多计一个格子
func aggregateRadioGrid(def *QuestionDef, records []ResponseRecord) *model.GridAnalytics {
	out := newGridAnalytics(def)
	rows := newGridIndex(def.GridRows, rowKeyPattern)
	cols := newGridIndex(out.Columns, colKeyPattern)

	out.Values = makeIntMatrix(len(out.Rows), len(out.Columns))
	out.RowTotals = make([]int, len(out.Rows))
	out.ColumnTotals = make([]int, len(out.Columns))

	for _, rec := range records {
		var answer map[string]string
		if err := json.Unmarshal([]byte(rec.Resp.ResponseText), &answer); err != nil {
			continue
		}
		counted := false
		for rowKey, colKey := range answer {
			r, ok := rows.resolve(rowKey)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("unknown row %q", rowKey))
				continue
			}
			c, ok := cols.resolve(colKey)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("unknown column %q for row %q", colKey, rowKey))
				continue
			}
			out.Values[r][c]++
			out.RowTotals[r]++
			out.ColumnTotals[c]++
			counted = true
		}
		if counted {
			out.TotalResponses++
		}
	}
	return out
}

// aggregateCheckboxGrid 多选网格：一行可勾多列，同行列组合统计共现
func aggregateCheckboxGrid(def *QuestionDef, records []ResponseRecord) *model.GridAnalytics {
	out := newGridAnalytics(def)
	rows := newGridIndex(def.GridRows, rowKeyPattern)
	cols := newGridIndex(out.Columns, colKeyPattern)

	out.Values = makeIntMatrix(len(out.Rows), len(out.Columns))
	out.RowTotals = make([]int, len(out.Rows))
	out.ColumnTotals = make([]int, len(out.Columns))
	coCounts := make(map[string]map[[2]string]int)

	for _, rec := range records {
		var answer map[string]interface{}
		if err := json.Unmarshal([]byte(rec.Resp.ResponseText), &answer); err != nil {
			continue
		}
		counted := false
		for rowKey, raw := range answer {
			r, ok := rows.resolve(rowKey)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("unknown row %q", rowKey))
				continue
			}

			var checked []string
			switch v := raw.(type) {
			case []interface{}:
				for _, elem := range v {
					if s, ok := elem.(string); ok {
						checked = append(checked, s)
					}
				}
			case string:
				// 行级 N/A 按单列勾选处理,能解析成列才计数
				checked = []string{v}
			default:
				continue
			}

			resolved := []int{}
			resolvedLabels := []string{}
			for _, colKey := range checked {
				c, ok := cols.resolve(colKey)
				if !ok {
					out.Warnings = append(out.Warnings, fmt.Sprintf("unknown column %q for row %q", colKey, rowKey))
					continue
				}
				resolved = append(resolved, c)
				resolvedLabels = append(resolvedLabels, out.Columns[c])
			}
			if len(resolved) == 0 {
				continue
			}
			counted = true
			for _, c := range resolved {
				out.Values[r][c]++
				out.RowTotals[r]++
				out.ColumnTotals[c]++
			}
			rowLabel := out.Rows[r]
			for i := 0; i < len(resolvedLabels); i++ {
				for j := i + 1; j < len(resolvedLabels); j++ {
					a, b := resolvedLabels[i], resolvedLabels[j]
					if a == b {
						continue
					}
					if a > b {
						a, b = b, a
					}
					if coCounts[rowLabel] == nil {
						coCounts[rowLabel] = make(map[[2]string]int)
					}
					coCounts[rowLabel][[2]string{a, b}]++
				}
			}
		}
		if counted {
			out.TotalResponses++
		}
	}

	for _, rowLabel := range out.Rows {
		for pair, count := range coCounts[rowLabel] {
			out.CoOccurrences = append(out.CoOccurrences, model.GridCoOccurrence{
				Row:     rowLabel,
				Columns: pair,
				Count:   count,
			})
		}
	}
	return out
}

// aggregateStarGrid 星级网格：逐格累加分值与次数，无数据的格子平均分记 0
func aggregateStarGrid(def *QuestionDef, records []ResponseRecord) *model.GridAnalytics {
	out := newGridAnalytics(def)
	rows := newGridIndex(def.GridRows, rowKeyPattern)
	cols := newGridIndex(out.Columns, colKeyPattern)

	nr, nc := len(out.Rows), len(out.Columns)
	sums := make([][]float64, nr)
	for i := range sums {
		sums[i] = make([]float64, nc)
	}
	out.CountValues = makeIntMatrix(nr, nc)

	for _, rec := range records {
		var answer map[string]map[string]interface{}
		if err := json.Unmarshal([]byte(rec.Resp.ResponseText), &answer); err != nil {
			continue
		}
		counted := false
		for rowKey, cells := range answer {
			r, ok := rows.resolve(rowKey)
			if !ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("unknown row %q", rowKey))
				continue
			}
			for colKey, cell := range cells {
				c, ok := cols.resolve(colKey)
				if !ok {
					out.Warnings = append(out.Warnings, fmt.Sprintf("unknown column %q for row %q", colKey, rowKey))
					continue
				}
				rating, ok := starRatingValue(def, cell)
				if !ok {
					continue
				}
				sums[r][c] += rating
				out.CountValues[r][c]++
				counted = true
			}
		}
		if counted {
			out.TotalResponses++
		}
	}

	out.CellAverages = make([][]float64, nr)
	for r := 0; r < nr; r++ {
		out.CellAverages[r] = make([]float64, nc)
		for c := 0; c < nc; c++ {
			if out.CountValues[r][c] > 0 {
				out.CellAverages[r][c] = round2(sums[r][c] / float64(out.CountValues[r][c]))
			}
		}
	}

	// 行列平均按格子计数加权
	out.RowAverages = make([]float64, nr)
	for r := 0; r < nr; r++ {
		sum, count := 0.0, 0
		for c := 0; c < nc; c++ {
			sum += sums[r][c]
			count += out.CountValues[r][c]
		}
		if count > 0 {
			out.RowAverages[r] = round2(sum / float64(count))
		}
	}
	out.ColumnAverages = make([]float64, nc)
	for c := 0; c < nc; c++ {
		sum, count := 0.0, 0
		for r := 0; r < nr; r++ {
			sum += sums[r][c]
			count += out.CountValues[r][c]
		}
		if count > 0 {
			out.ColumnAverages[c] = round2(sum / float64(count))
		}
	}
	return out
}

func starRatingValue(def *QuestionDef, cell interface{}) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, true
	case string:
		if def.IsNotApplicableText(v) {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
