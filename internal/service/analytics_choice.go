package service

import (
	"math"
	"sort"

	"engage_backend/internal/model"
)

// ResponseRecord 统计输入：一条答案连同其所属提交的快照
type ResponseRecord struct {
	Resp *model.Response
	Sub  *model.Submission
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func pct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) * 100 / float64(total))
}

// aggregateSingleSelect 单选类题型（single-choice、dropdown、scale）。
// 每个已定义选项都会出现在分布里，计数为零也不例外。
func aggregateSingleSelect(def *QuestionDef, records []ResponseRecord) *model.SingleSelectAnalytics {
	counts := make(map[string]int)
	order := []string{}
	seen := make(map[string]bool)
	for _, opt := range def.Options {
		counts[opt] = 0
		order = append(order, opt)
		seen[opt] = true
	}

	naCount := 0
	total := 0
	for _, rec := range records {
		total++
		if rec.Resp.IsNotApplicable || def.IsNotApplicableText(rec.Resp.ResponseText) {
			naCount++
			continue
		}
		val := rec.Resp.ResponseText
		if !seen[val] {
			seen[val] = true
			order = append(order, val)
		}
		counts[val]++
	}

	dist := make([]model.OptionCount, 0, len(order)+1)
	for _, opt := range order {
		dist = append(dist, model.OptionCount{
			Option:     opt,
			Count:      counts[opt],
			Percentage: pct(counts[opt], total),
		})
	}
	if def.ShowNotApplicable || naCount > 0 {
		dist = append(dist, model.OptionCount{
			Option:     def.NotApplicableText,
			Count:      naCount,
			Percentage: pct(naCount, total),
		})
	}

	return &model.SingleSelectAnalytics{
		TotalResponses: total,
		Distribution:   dist,
	}
}

// aggregateMultiSelect 多选类题型（checkbox、multi-choice）。
// 同时统计排序后选项对的共现次数，取前 15。
func aggregateMultiSelect(def *QuestionDef, records []ResponseRecord) *model.MultiSelectAnalytics {
	counts := make(map[string]int)
	order := []string{}
	seen := make(map[string]bool)
	for _, opt := range def.Options {
		counts[opt] = 0
		order = append(order, opt)
		seen[opt] = true
	}

	pairCounts := make(map[[2]string]int)
	totalResponses := 0
	totalSelections := 0
	for _, rec := range records {
		values := (&NormalizedAnswer{Text: rec.Resp.ResponseText}).Values()
		if rec.Resp.IsNotApplicable {
			values = []string{def.NotApplicableText}
		}
		if len(values) == 0 {
			continue
		}
		totalResponses++
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				order = append(order, v)
			}
			counts[v]++
			totalSelections++
		}

		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[i] == sorted[j] {
					continue
				}
				pairCounts[[2]string{sorted[i], sorted[j]}]++
			}
		}
	}

	dist := make([]model.MultiOptionCount, 0, len(order))
	for _, opt := range order {
		dist = append(dist, model.MultiOptionCount{
			Option:                 opt,
			Count:                  counts[opt],
			PercentageOfResponses:  pct(counts[opt], totalResponses),
			PercentageOfSelections: pct(counts[opt], totalSelections),
		})
	}

	return &model.MultiSelectAnalytics{
		TotalResponses:  totalResponses,
		TotalSelections: totalSelections,
		Distribution:    dist,
		TopPairs:        topPairs(pairCounts, 15),
	}
}

func topPairs(pairCounts map[[2]string]int, limit int) []model.PairCount {
	pairs := make([]model.PairCount, 0, len(pairCounts))
	for p, c := range pairCounts {
		pairs = append(pairs, model.PairCount{Options: p, Count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].Options[0] != pairs[j].Options[0] {
			return pairs[i].Options[0] < pairs[j].Options[0]
		}
		return pairs[i].Options[1] < pairs[j].Options[1]
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// aggregateImageSelect 图片选择题：存储按 hidden_label 计数，输出展开成可见标签和图片地址
func aggregateImageSelect(def *QuestionDef, records []ResponseRecord, multi bool) *model.MultiSelectAnalytics {
	counts := make(map[string]int)
	order := []string{}
	seen := make(map[string]bool)
	for _, opt := range def.ImageOptions {
		counts[opt.HiddenLabel] = 0
		order = append(order, opt.HiddenLabel)
		seen[opt.HiddenLabel] = true
	}

	totalResponses := 0
	totalSelections := 0
	for _, rec := range records {
		var values []string
		if multi {
			values = (&NormalizedAnswer{Text: rec.Resp.ResponseText}).Values()
		} else if rec.Resp.ResponseText != "" {
			values = []string{rec.Resp.ResponseText}
		}
		if rec.Resp.IsNotApplicable || len(values) == 0 {
			continue
		}
		totalResponses++
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				order = append(order, v)
			}
			counts[v]++
			totalSelections++
		}
	}

	dist := make([]model.MultiOptionCount, 0, len(order))
	for _, hidden := range order {
		entry := model.MultiOptionCount{
			Option:                 hidden,
			HiddenLabel:            hidden,
			Count:                  counts[hidden],
			PercentageOfResponses:  pct(counts[hidden], totalResponses),
			PercentageOfSelections: pct(counts[hidden], totalSelections),
		}
		if label, imageURL, ok := def.ImageLabelFor(hidden); ok {
			entry.Option = label
			entry.ImageURL = imageURL
		}
		dist = append(dist, entry)
	}

	return &model.MultiSelectAnalytics{
		TotalResponses:  totalResponses,
		TotalSelections: totalSelections,
		Distribution:    dist,
	}
}
