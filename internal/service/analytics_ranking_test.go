package service

import (
	"strings"
	"testing"

	"engage_backend/internal/model"
)

func rankingDef() *QuestionDef {
	return &QuestionDef{
		ID:                8,
		Type:              model.QuestionInteractiveRanking,
		RankingItems:      []string{"Parks", "Roads", "Schools"},
		NotApplicableText: "Not Applicable",
	}
}

func rankingRecord(text string) ResponseRecord {
	return ResponseRecord{
		Resp: &model.Response{QuestionID: 8, ResponseText: text},
		Sub:  &model.Submission{},
	}
}

func TestRankingAverages(t *testing.T) {
	def := rankingDef()
	out := aggregateRanking(def, []ResponseRecord{
		rankingRecord(`{"Parks":1,"Roads":2,"Schools":3}`),
		rankingRecord(`{"Parks":2,"Roads":1,"Schools":3}`),
	})

	if out.ValidResponses != 2 {
		t.Fatalf("valid = %d", out.ValidResponses)
	}
	// Parks 与 Roads 平均名次都是 1.5,Schools 3.0;排序稳定保持定义序
	if out.AverageRanks[0].Item != "Parks" || out.AverageRanks[0].AverageRank != 1.5 {
		t.Errorf("first: %+v", out.AverageRanks[0])
	}
	if out.AverageRanks[2].Item != "Schools" || out.AverageRanks[2].AverageRank != 3 {
		t.Errorf("last: %+v", out.AverageRanks[2])
	}

	// matrix[0] 是 Parks:第 1 名一次,第 2 名一次
	if out.RankMatrix[0][0] != 1 || out.RankMatrix[0][1] != 1 || out.RankMatrix[0][2] != 0 {
		t.Errorf("matrix row: %v", out.RankMatrix[0])
	}
}

func TestRankingDropsUnknownItemAndBadRank(t *testing.T) {
	def := rankingDef()
	out := aggregateRanking(def, []ResponseRecord{
		rankingRecord(`{"Parks":1,"Bridges":2,"Roads":5}`),
	})

	// Bridges 未定义、Roads 名次越界,只剩 Parks
	if out.ValidResponses != 1 {
		t.Fatalf("valid = %d", out.ValidResponses)
	}
	for _, avg := range out.AverageRanks {
		switch avg.Item {
		case "Parks":
			if avg.Count != 1 || avg.AverageRank != 1 {
				t.Errorf("Parks: %+v", avg)
			}
		default:
			if avg.Count != 0 {
				t.Errorf("%s should have no ranks: %+v", avg.Item, avg)
			}
		}
	}

	// 丢弃的条目留下警告
	if len(out.Warnings) != 2 {
		t.Fatalf("warnings = %v", out.Warnings)
	}
	joined := strings.Join(out.Warnings, "; ")
	if !strings.Contains(joined, `unknown item "Bridges"`) {
		t.Errorf("missing unknown-item warning: %v", out.Warnings)
	}
	if !strings.Contains(joined, `rank 5 out of range for item "Roads"`) {
		t.Errorf("missing out-of-range warning: %v", out.Warnings)
	}
}

func TestRankingDuplicatedRankDropsSharers(t *testing.T) {
	def := rankingDef()
	out := aggregateRanking(def, []ResponseRecord{
		rankingRecord(`{"Parks":1,"Roads":1,"Schools":2}`),
	})

	if out.ValidResponses != 1 {
		t.Fatalf("valid = %d", out.ValidResponses)
	}
	for _, avg := range out.AverageRanks {
		switch avg.Item {
		case "Schools":
			if avg.Count != 1 || avg.AverageRank != 2 {
				t.Errorf("Schools: %+v", avg)
			}
		default:
			if avg.Count != 0 {
				t.Errorf("shared rank must drop %s: %+v", avg.Item, avg)
			}
		}
	}

	joined := strings.Join(out.Warnings, "; ")
	if !strings.Contains(joined, `dropped item "Parks"`) || !strings.Contains(joined, `dropped item "Roads"`) {
		t.Errorf("shared-rank warnings = %v", out.Warnings)
	}
}

func TestRankingAllInvalidNotCounted(t *testing.T) {
	def := rankingDef()
	out := aggregateRanking(def, []ResponseRecord{
		rankingRecord(`{"Bridges":1}`),
		rankingRecord(`not json`),
	})
	if out.ValidResponses != 0 {
		t.Errorf("valid = %d", out.ValidResponses)
	}
}

func TestRankingUnrankedItemsLast(t *testing.T) {
	def := rankingDef()
	out := aggregateRanking(def, []ResponseRecord{
		rankingRecord(`{"Schools":1}`),
	})
	if out.AverageRanks[0].Item != "Schools" {
		t.Errorf("ranked item must lead: %+v", out.AverageRanks)
	}
	if out.AverageRanks[2].Count != 0 {
		t.Errorf("unranked items must trail: %+v", out.AverageRanks)
	}
}
