package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"engage_backend/internal/model"
)

// aggregateNumeric 数值类题型（rating、numerical-input、rating-scale、nps、star-rating）。
// rating 与 star-rating 的分布固定在题目定义的刻度上，其余按观测值升序。
func aggregateNumeric(def *QuestionDef, records []ResponseRecord) *model.NumericAnalytics {
	var values []float64
	naCount := 0
	for _, rec := range records {
		if rec.Resp.IsNotApplicable || def.IsNotApplicableText(rec.Resp.ResponseText) {
			naCount++
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec.Resp.ResponseText), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}

	out := &model.NumericAnalytics{
		Stats: computeNumericStats(values, naCount),
	}

	switch def.Type {
	case model.QuestionRating, model.QuestionStarRating:
		out.Distribution = stepDistribution(def, values, naCount)
	default:
		out.Distribution = observedDistribution(def, values, naCount)
	}

	if def.Type == model.QuestionNPS {
		out.Segments = computeNPSSegments(values)
	}
	return out
}

func computeNumericStats(values []float64, naCount int) model.NumericStats {
	stats := model.NumericStats{CountValid: len(values), CountNA: naCount}
	if len(values) == 0 {
		return stats
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(sorted))

	stats.Mean = round2(mean)
	stats.Median = round2(median)
	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.StdDev = round2(math.Sqrt(variance))
	return stats
}

func stepDistribution(def *QuestionDef, values []float64, naCount int) []model.ValueCount {
	counts := make(map[float64]int)
	for _, v := range values {
		counts[v]++
	}
	dist := []model.ValueCount{}
	for _, step := range def.RatingSteps() {
		dist = append(dist, model.ValueCount{
			Value:      formatNumber(step),
			Count:      counts[step],
			Percentage: pct(counts[step], len(values)+naCount),
		})
	}
	return appendNARow(def, dist, naCount, len(values))
}

func observedDistribution(def *QuestionDef, values []float64, naCount int) []model.ValueCount {
	counts := make(map[float64]int)
	uniq := []float64{}
	for _, v := range values {
		if counts[v] == 0 {
			uniq = append(uniq, v)
		}
		counts[v]++
	}
	sort.Float64s(uniq)
	dist := []model.ValueCount{}
	for _, v := range uniq {
		dist = append(dist, model.ValueCount{
			Value:      formatNumber(v),
			Count:      counts[v],
			Percentage: pct(counts[v], len(values)+naCount),
		})
	}
	return appendNARow(def, dist, naCount, len(values))
}

func appendNARow(def *QuestionDef, dist []model.ValueCount, naCount, validCount int) []model.ValueCount {
	if def.ShowNotApplicable || naCount > 0 {
		dist = append(dist, model.ValueCount{
			Value:      def.NotApplicableText,
			Count:      naCount,
			Percentage: pct(naCount, validCount+naCount),
		})
	}
	return dist
}

func computeNPSSegments(values []float64) *model.NPSSegments {
	seg := &model.NPSSegments{}
	for _, v := range values {
		switch {
		case v >= 9:
			seg.Promoters++
		case v >= 7:
			seg.Passives++
		default:
			seg.Detractors++
		}
	}
	if valid := len(values); valid > 0 {
		seg.NPSScore = round2(float64(seg.Promoters-seg.Detractors) * 100 / float64(valid))
	}
	return seg
}
