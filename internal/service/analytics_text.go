package service

import (
	"regexp"
	"sort"
	"strings"

	"engage_backend/internal/model"
)

var wordPattern = regexp.MustCompile(`[a-zA-Z0-9']+`)

// 词频统计里要丢弃的高频虚词
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "him": true, "his": true, "how": true, "its": true,
	"may": true, "new": true, "now": true, "old": true, "see": true,
	"two": true, "way": true, "who": true, "did": true, "get": true,
	"this": true, "that": true, "with": true, "have": true, "from": true,
	"they": true, "been": true, "were": true, "what": true, "when": true,
	"your": true, "there": true, "their": true, "would": true, "could": true,
	"should": true, "about": true, "which": true, "will": true, "more": true,
	"also": true, "some": true, "then": true, "than": true, "them": true,
	"these": true, "those": true, "very": true, "just": true, "into": true,
	"over": true, "because": true, "other": true, "most": true, "such": true,
	"only": true, "much": true, "where": true, "after": true, "before": true,
	"being": true, "n't": true, "it's": true, "don't": true, "i'm": true,
}

const (
	latestResponseLimit = 10
	topWordLimit        = 30
)

// aggregateOpenEnded 开放题：按提交时间倒序取最近 10 条，词频取前 30
func aggregateOpenEnded(def *QuestionDef, records []ResponseRecord) *model.TextAnalytics {
	type timedEntry struct {
		entry model.TextResponseEntry
		seq   int
	}
	var entries []timedEntry
	wordCounts := make(map[string]int)
	total := 0

	for i, rec := range records {
		if rec.Resp.IsNotApplicable || def.IsNotApplicableText(rec.Resp.ResponseText) {
			continue
		}
		text := strings.TrimSpace(rec.Resp.ResponseText)
		if text == "" {
			continue
		}
		total++
		entries = append(entries, timedEntry{
			entry: model.TextResponseEntry{
				Text:        text,
				SubmittedAt: rec.Sub.SubmittedAt,
			},
			seq: i,
		})
		for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if len(word) <= 1 || stopwords[word] {
				continue
			}
			wordCounts[word]++
		}
	}

	// 同一时刻的提交按到达顺序倒排,保证输出稳定
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].entry.SubmittedAt.Equal(entries[j].entry.SubmittedAt) {
			return entries[i].entry.SubmittedAt.After(entries[j].entry.SubmittedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	latest := make([]model.TextResponseEntry, 0, latestResponseLimit)
	for _, e := range entries {
		if len(latest) == latestResponseLimit {
			break
		}
		latest = append(latest, e.entry)
	}

	words := make([]model.WordCount, 0, len(wordCounts))
	for w, c := range wordCounts {
		words = append(words, model.WordCount{Word: w, Count: c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > topWordLimit {
		words = words[:topWordLimit]
	}

	return &model.TextAnalytics{
		TotalResponses:  total,
		LatestResponses: latest,
		TopWords:        words,
	}
}
