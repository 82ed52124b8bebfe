package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"engage_backend/internal/config"
	"engage_backend/internal/model"
	"engage_backend/internal/util"
	"engage_backend/pkg/monitoring"
)

// SubmitSurveyReq 答卷提交请求。responses 的键是题目序号的字符串形式
type SubmitSurveyReq struct {
	Responses     map[string]interface{} `json:"responses" binding:"required"`
	SurveyLinkID  *uint                  `json:"survey_link_id"`
	Duration      *int                   `json:"duration"`
	UserAgent     string                 `json:"user_agent"`
	ResponseTimes map[string]float64     `json:"response_times"`
	IsAIGenerated bool                   `json:"is_ai_generated"`
}

// SubmissionStore 提交链路的数据访问
type SubmissionStore interface {
	GetSurveyWithQuestions(ctx context.Context, surveyID uint) (*model.Survey, error)
	GetSurveyLink(ctx context.Context, linkID uint) (*model.SurveyLink, error)
	CountSubmissions(ctx context.Context, surveyID uint) (int64, error)
	CountLinkSubmissions(ctx context.Context, linkID uint) (int64, error)
	HasCompletedSubmission(ctx context.Context, userID, surveyID uint) (bool, error)
	GetUser(ctx context.Context, userID uint) (*model.User, error)
	CreateSubmission(ctx context.Context, sub *model.Submission, award *model.SubmissionAward) error
	ListSubmissionsPage(ctx context.Context, surveyID uint, page, perPage int) ([]model.Submission, int64, error)
}

type SubmissionService struct {
	store  SubmissionStore
	cache  *AnalyticsCache
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	rewards config.RewardsConfig
}

func NewSubmissionService(store SubmissionStore, cache *AnalyticsCache, rewards config.RewardsConfig, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		store:   store,
		cache:   cache,
		rewards: rewards,
		logger:  logger,
		now:     time.Now,
	}
}

// UpdateRewards 配置热更新入口
func (s *SubmissionService) UpdateRewards(rewards config.RewardsConfig) {
	s.mu.Lock()
	s.rewards = rewards
	s.mu.Unlock()
	s.logger.Info("reward parameters updated",
		zap.Int("xp_per_question", rewards.XPPerQuestion),
		zap.Float64("minutes_per_question", rewards.MinutesPerQuestion))
}

// 管理员和 AI 生成的提交没有真实画像,从固定池里随机取
var (
	demoAgeGroups  = []string{"Under 18", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
	demoGenders    = []string{"Male", "Female", "Non-binary", "Prefer not to say"}
	demoLocations  = []string{"New York", "London", "Berlin", "Singapore", "Sydney", "Toronto"}
	demoEducations = []string{"High School", "Bachelor's", "Master's", "Doctorate"}
	demoCompanies  = []string{"Acme Corp", "Globex", "Initech", "Umbrella", "Stark Industries"}
)

// Submit 执行一次答卷提交。流程：
// 1. 校验问卷状态（时间窗、参与上限、链接审批与上限）
// 2. 区分提交身份：管理员、AI 生成、普通用户;仅普通用户受一人一卷约束
// 3. 生成人口统计和设备快照
// 4. 按可见性判定完整性，归一化逐题答案
// 5. 单事务落库，完整首答附带经验值奖励
func (s *SubmissionService) Submit(ctx context.Context, surveyID uint, claims *util.Claims, req *SubmitSurveyReq) (*model.Submission, error) {
	if claims == nil {
		return nil, util.ErrAuthRequired
	}
	survey, err := s.store.GetSurveyWithQuestions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !survey.AcceptsSubmissionsAt(now) {
		return nil, util.ErrSurveyClosed
	}
	if err := CanSubmitSurvey(claims, survey); err != nil {
		return nil, err
	}
	if survey.ParticipantLimit != nil {
		count, err := s.store.CountSubmissions(ctx, surveyID)
		if err != nil {
			return nil, err
		}
		if count >= int64(*survey.ParticipantLimit) {
			return nil, util.ErrSurveyLimitReached
		}
	}

	var link *model.SurveyLink
	if req.SurveyLinkID != nil {
		link, err = s.store.GetSurveyLink(ctx, *req.SurveyLinkID)
		if err != nil {
			return nil, err
		}
		if link.SurveyID != surveyID {
			return nil, util.ErrSurveyNotFound
		}
		if !link.IsApproved {
			return nil, util.ErrLinkNotApproved
		}
		if link.MaxResponses != nil {
			count, err := s.store.CountLinkSubmissions(ctx, link.ID)
			if err != nil {
				return nil, err
			}
			if count >= int64(*link.MaxResponses) {
				return nil, util.ErrLinkLimitReached
			}
		}
	}

	isAdmin := claims.IsAdmin()
	isRegular := !isAdmin && !req.IsAIGenerated

	var user *model.User
	if isRegular {
		done, err := s.store.HasCompletedSubmission(ctx, claims.UserID, surveyID)
		if err != nil {
			return nil, err
		}
		if done {
			return nil, util.ErrDuplicateSubmission
		}
		user, err = s.store.GetUser(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
	}

	sub := &model.Submission{
		SurveyID:      surveyID,
		SubmittedAt:   now,
		Duration:      req.Duration,
		IsAIGenerated: req.IsAIGenerated,
		UserAgent:     req.UserAgent,
	}
	uid := claims.UserID
	sub.UserID = &uid
	if link != nil {
		sub.SurveyLinkID = &link.ID
		// 分发渠道的标签作为人群标记,供统计过滤和导出使用
		sub.CohortTag = link.Label
	}
	sub.DeviceType, sub.BrowserInfo = parseUserAgent(req.UserAgent)
	s.stampDemographics(sub, user)

	defs, err := ParseQuestions(survey.Questions)
	if err != nil {
		return nil, err
	}

	answers, responses := s.normalizeAll(defs, req)
	sub.Responses = responses
	sub.IsComplete = isCompleteSubmission(defs, answers, req.Responses)

	var award *model.SubmissionAward
	if isRegular && sub.IsComplete {
		key := fmt.Sprintf("%d-%d", claims.UserID, surveyID)
		sub.CompletionKey = &key
		businessID := survey.BusinessID
		award = &model.SubmissionAward{
			UserID:        claims.UserID,
			BusinessID:    &businessID,
			Points:        s.SurveyXP(survey, answerableCount(defs)),
			ActivityType:  model.ActivitySurveyCompleted,
			RelatedItemID: surveyID,
			Description:   fmt.Sprintf("Completed survey: %s", survey.Title),
		}
	}

	if err := s.store.CreateSubmission(ctx, sub, award); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, surveyID)
	monitoring.RecordSubmission(sub.IsComplete, sub.IsAIGenerated)

	s.logger.Info("submission stored",
		zap.Uint("survey_id", surveyID),
		zap.Uint("submission_id", sub.ID),
		zap.Bool("complete", sub.IsComplete),
		zap.Bool("ai_generated", req.IsAIGenerated))
	return sub, nil
}

// ListSubmissions 原始提交分页列表，附带逐题答案
func (s *SubmissionService) ListSubmissions(ctx context.Context, surveyID uint, page, perPage int) ([]model.Submission, int64, error) {
	if _, err := s.store.GetSurveyWithQuestions(ctx, surveyID); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.ListSubmissionsPage(ctx, surveyID, page, perPage)
}

// SurveyXP 完整答卷的经验值，与题目数量成正比
func (s *SubmissionService) SurveyXP(survey *model.Survey, questionCount int) int {
	per := survey.XPPerQuestion
	if per <= 0 {
		s.mu.RLock()
		per = s.rewards.XPPerQuestion
		s.mu.RUnlock()
	}
	if per <= 0 {
		per = 5
	}
	return questionCount * per
}

// EstimatedMinutes 预估答题时长
func (s *SubmissionService) EstimatedMinutes(questionCount int) int {
	s.mu.RLock()
	per := s.rewards.MinutesPerQuestion
	s.mu.RUnlock()
	if per <= 0 {
		per = 0.5
	}
	return int(math.Ceil(float64(questionCount) * per))
}

func (s *SubmissionService) stampDemographics(sub *model.Submission, user *model.User) {
	if user != nil {
		sub.AgeGroup = user.AgeGroup()
		sub.Gender = user.Gender
		sub.Location = user.Location
		sub.Education = user.Education
		sub.Company = user.Company
		return
	}
	sub.AgeGroup = demoAgeGroups[rand.Intn(len(demoAgeGroups))]
	sub.Gender = demoGenders[rand.Intn(len(demoGenders))]
	sub.Location = demoLocations[rand.Intn(len(demoLocations))]
	sub.Education = demoEducations[rand.Intn(len(demoEducations))]
	sub.Company = demoCompanies[rand.Intn(len(demoCompanies))]
}

// normalizeAll 逐题归一化。形状不合法的答案记日志后跳过，不影响其余答案。
func (s *SubmissionService) normalizeAll(defs []*QuestionDef, req *SubmitSurveyReq) (map[uint]*NormalizedAnswer, []model.Response) {
	answers := make(map[uint]*NormalizedAnswer)
	var responses []model.Response
	for _, def := range defs {
		payload, ok := req.Responses[strconv.Itoa(def.SequenceNumber)]
		if !ok {
			continue
		}
		ans, err := NormalizeAnswer(def, payload)
		if err != nil {
			if errors.Is(err, util.ErrInvalidAnswerShape) {
				s.logger.Warn("answer shape mismatch, skipping",
					zap.Uint("question_id", def.ID),
					zap.String("question_type", string(def.Type)),
					zap.Error(err))
				continue
			}
			s.logger.Error("answer normalization failed",
				zap.Uint("question_id", def.ID), zap.Error(err))
			continue
		}
		if ans == nil {
			continue
		}
		answers[def.ID] = ans

		resp := model.Response{
			QuestionID:      def.ID,
			ResponseText:    ans.Text,
			IsNotApplicable: ans.IsNotApplicable,
			IsOther:         ans.IsOther,
			OtherText:       ans.OtherText,
			FilePath:        ans.FilePath,
			FileType:        ans.FileType,
		}
		if t, ok := req.ResponseTimes[strconv.Itoa(def.SequenceNumber)]; ok {
			resp.ResponseTime = &t
		}
		responses = append(responses, resp)
	}
	return answers, responses
}

// isCompleteSubmission 所有必答且可见的题都有答案才算完整
func isCompleteSubmission(defs []*QuestionDef, answers map[uint]*NormalizedAnswer, raw map[string]interface{}) bool {
	eval := NewVisibilityEvaluator(defs, answers)
	for _, def := range defs {
		if !def.Required || def.Type.IsContentOnly() {
			continue
		}
		if !eval.IsVisible(def) {
			continue
		}
		if _, ok := answers[def.ID]; ok {
			continue
		}
		// 原始载荷非空但归一化失败的题不阻断完整性
		if payload, ok := raw[strconv.Itoa(def.SequenceNumber)]; ok && !isEmptyPayload(payload) {
			continue
		}
		return false
	}
	return true
}

func answerableCount(defs []*QuestionDef) int {
	n := 0
	for _, def := range defs {
		if !def.Type.IsContentOnly() {
			n++
		}
	}
	return n
}

func parseUserAgent(ua string) (deviceType, browser string) {
	l := strings.ToLower(ua)
	switch {
	case strings.Contains(l, "ipad") || strings.Contains(l, "tablet"):
		deviceType = "tablet"
	case strings.Contains(l, "mobile") || strings.Contains(l, "iphone") || strings.Contains(l, "android"):
		deviceType = "mobile"
	case ua == "":
		deviceType = "unknown"
	default:
		deviceType = "desktop"
	}
	switch {
	case strings.Contains(l, "edg"):
		browser = "Edge"
	case strings.Contains(l, "chrome"):
		browser = "Chrome"
	case strings.Contains(l, "firefox"):
		browser = "Firefox"
	case strings.Contains(l, "safari"):
		browser = "Safari"
	}
	return deviceType, browser
}
