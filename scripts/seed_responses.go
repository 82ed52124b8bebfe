// 手动生成 AI 模拟答卷脚本
//
// 给指定问卷批量写入标记为 AI 生成的模拟提交，用于演示环境
// 或在真实数据到位前预览统计页面效果。
//
// 用法: go run scripts/seed_responses.go -survey 1 -count 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"engage_backend/internal/config"
	"engage_backend/internal/model"
	"engage_backend/internal/repository"
	"engage_backend/internal/service"
	"engage_backend/internal/util"
	"engage_backend/pkg/database"
	"engage_backend/pkg/logger"
)

var openEndedSamples = []string{
	"More green spaces would make a big difference.",
	"Happy with the direction overall, keep it up.",
	"Better lighting near the station please.",
	"The weekend program was great, my kids loved it.",
	"Parking remains the biggest pain point for me.",
	"No strong opinion, everything seems fine.",
}

func main() {
	surveyID := flag.Uint("survey", 0, "目标问卷 ID")
	count := flag.Int("count", 20, "生成的提交数量")
	flag.Parse()
	if *surveyID == 0 {
		log.Fatal("必须指定 -survey")
	}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	repo := repository.NewSubmissionRepository(db)
	submissions := service.NewSubmissionService(repo, nil, cfg.Rewards, logger.Log)

	ctx := context.Background()
	survey, err := repo.GetSurveyWithQuestions(ctx, *surveyID)
	if err != nil {
		log.Fatalf("读取问卷失败: %v", err)
	}
	defs, err := service.ParseQuestions(survey.Questions)
	if err != nil {
		log.Fatalf("解析题目失败: %v", err)
	}

	claims := &util.Claims{UserID: 1, Role: model.RoleSuperAdmin}
	created := 0
	for i := 0; i < *count; i++ {
		req := &service.SubmitSurveyReq{
			Responses:     randomResponses(defs),
			IsAIGenerated: true,
			UserAgent:     "SeedBot/1.0",
		}
		if _, err := submissions.Submit(ctx, *surveyID, claims, req); err != nil {
			log.Printf("第 %d 条提交失败: %v", i+1, err)
			continue
		}
		created++
	}
	log.Printf("完成: 问卷 %d 新增 %d/%d 条模拟提交", *surveyID, created, *count)
}

// randomResponses 按题型生成一份可信的答案集合
func randomResponses(defs []*service.QuestionDef) map[string]interface{} {
	answers := make(map[string]interface{})
	for _, def := range defs {
		key := fmt.Sprintf("%d", def.SequenceNumber)
		switch def.Type {
		case model.QuestionSingleChoice, model.QuestionDropdown, model.QuestionScale:
			if len(def.Options) > 0 {
				answers[key] = def.Options[rand.Intn(len(def.Options))]
			}
		case model.QuestionMultiChoice, model.QuestionCheckbox:
			answers[key] = randomSubset(def.Options)
		case model.QuestionSingleImageSelect:
			if len(def.ImageOptions) > 0 {
				answers[key] = def.ImageOptions[rand.Intn(len(def.ImageOptions))].HiddenLabel
			}
		case model.QuestionMultipleImageSelect:
			labels := make([]string, len(def.ImageOptions))
			for i, opt := range def.ImageOptions {
				labels[i] = opt.HiddenLabel
			}
			answers[key] = randomSubset(labels)
		case model.QuestionRating, model.QuestionRatingScale, model.QuestionNPS,
			model.QuestionStarRating, model.QuestionNumericalInput:
			steps := def.RatingSteps()
			if len(steps) > 0 {
				answers[key] = steps[rand.Intn(len(steps))]
			} else {
				answers[key] = rand.Intn(100)
			}
		case model.QuestionOpenEnded:
			answers[key] = openEndedSamples[rand.Intn(len(openEndedSamples))]
		case model.QuestionInteractiveRanking:
			ranks := make(map[string]int, len(def.RankingItems))
			for i, pos := range rand.Perm(len(def.RankingItems)) {
				ranks[def.RankingItems[i]] = pos + 1
			}
			answers[key] = ranks
		case model.QuestionRadioGrid:
			cols := def.ColumnLabels()
			grid := make(map[string]string, len(def.GridRows))
			for _, row := range def.GridRows {
				grid[row] = cols[rand.Intn(len(cols))]
			}
			answers[key] = grid
		case model.QuestionCheckboxGrid:
			cols := def.ColumnLabels()
			grid := make(map[string]interface{}, len(def.GridRows))
			for _, row := range def.GridRows {
				grid[row] = randomSubset(cols)
			}
			answers[key] = grid
		case model.QuestionStarRatingGrid:
			cols := def.ColumnLabels()
			grid := make(map[string]map[string]interface{}, len(def.GridRows))
			for _, row := range def.GridRows {
				cells := make(map[string]interface{}, len(cols))
				for _, col := range cols {
					cells[col] = rand.Intn(5) + 1
				}
				grid[row] = cells
			}
			answers[key] = grid
		case model.QuestionDatePicker:
			answers[key] = fmt.Sprintf("2026-%02d-%02d", rand.Intn(12)+1, rand.Intn(28)+1)
		}
	}
	return answers
}

func randomSubset(options []string) []string {
	if len(options) == 0 {
		return nil
	}
	n := rand.Intn(len(options)) + 1
	picked := make([]string, 0, n)
	for _, i := range rand.Perm(len(options))[:n] {
		picked = append(picked, options[i])
	}
	return picked
}
