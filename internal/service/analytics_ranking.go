package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"engage_backend/internal/model"
)

// aggregateRanking 排序题。单个答案先逐项校验：条目必须在定义列表里，
// 名次必须落在 [1,n]，重复出现的条目或名次整组丢弃。
func aggregateRanking(def *QuestionDef, records []ResponseRecord) *model.RankingAnalytics {
	n := len(def.RankingItems)
	defined := make(map[string]int, n)
	for i, item := range def.RankingItems {
		defined[item] = i
	}

	// rankSums[i] 与 rankCounts[i] 按定义条目序；matrix[i][r-1] 是条目 i 被排到第 r 名的次数
	rankSums := make([]int, n)
	rankCounts := make([]int, n)
	matrix := make([][]int, n)
	for i := range matrix {
		matrix[i] = make([]int, n)
	}

	var warnings []string
	validResponses := 0
	for _, rec := range records {
		if rec.Resp.IsNotApplicable {
			continue
		}
		var ranks map[string]int
		if err := json.Unmarshal([]byte(rec.Resp.ResponseText), &ranks); err != nil {
			continue
		}

		kept := make(map[string]int, len(ranks))
		rankUses := make(map[int]int)
		for item, rank := range ranks {
			if _, ok := defined[item]; !ok {
				warnings = append(warnings, fmt.Sprintf("unknown item %q", item))
				continue
			}
			if rank < 1 || rank > n {
				warnings = append(warnings, fmt.Sprintf("rank %d out of range for item %q", rank, item))
				continue
			}
			kept[item] = rank
			rankUses[rank]++
		}
		// 名次被多个条目共用时这些条目全部丢弃
		for item, rank := range kept {
			if rankUses[rank] > 1 {
				warnings = append(warnings, fmt.Sprintf("rank %d shared, dropped item %q", rank, item))
				delete(kept, item)
			}
		}
		if len(kept) == 0 {
			continue
		}
		validResponses++
		for item, rank := range kept {
			idx := defined[item]
			rankSums[idx] += rank
			rankCounts[idx]++
			matrix[idx][rank-1]++
		}
	}

	averages := make([]model.AverageRank, 0, n)
	for i, item := range def.RankingItems {
		entry := model.AverageRank{Item: item, Count: rankCounts[i]}
		if rankCounts[i] > 0 {
			entry.AverageRank = round2(float64(rankSums[i]) / float64(rankCounts[i]))
		}
		averages = append(averages, entry)
	}
	// 平均名次升序，未被排过的条目排在最后
	sort.SliceStable(averages, func(i, j int) bool {
		if averages[i].Count == 0 || averages[j].Count == 0 {
			return averages[j].Count == 0 && averages[i].Count != 0
		}
		return averages[i].AverageRank < averages[j].AverageRank
	})

	return &model.RankingAnalytics{
		Items:          def.RankingItems,
		ValidResponses: validResponses,
		AverageRanks:   averages,
		RankMatrix:     matrix,
		Warnings:       warnings,
	}
}
