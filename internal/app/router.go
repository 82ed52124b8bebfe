package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"engage_backend/docs"
	"engage_backend/internal/config"
	"engage_backend/internal/middleware"
	"engage_backend/internal/model"
	"engage_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 公共路由
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 参与端通过分享码进入问卷,允许未登录浏览
		public.GET("/links/:code", middleware.TryAuthMiddleware(cfg), c.survey.ResolveLink)
	}

	// 问卷浏览：登录可选
	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware(cfg))
	{
		browse.GET("/surveys", c.survey.List)
		browse.GET("/surveys/:id", c.survey.Get)
	}

	// 答卷与个人链路：必须登录
	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authed.POST("/surveys/:id/responses", c.response.Submit)
		authed.POST("/uploads", c.upload.Upload)

		authed.GET("/me", c.user.Profile)
		authed.PUT("/me", c.user.UpdateProfile)
		authed.GET("/me/xp", c.user.XPSummary)
		authed.GET("/me/xp/history", c.user.XPHistory)
	}

	// 管理链路：问卷维护、原始数据、统计与导出
	admin := router.Group("/api")
	admin.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.RoleBusinessAdmin),
	)
	{
		admin.POST("/surveys", c.survey.Create)
		admin.PUT("/surveys/:id", c.survey.Update)
		admin.DELETE("/surveys/:id", c.survey.Delete)
		admin.POST("/surveys/:id/reorder", c.survey.Reorder)

		admin.POST("/surveys/:id/links", c.survey.CreateLink)
		admin.GET("/surveys/:id/links", c.survey.ListLinks)
		admin.PUT("/surveys/:id/links/:linkId", c.survey.UpdateLink)
		admin.DELETE("/surveys/:id/links/:linkId", c.survey.DeleteLink)

		admin.GET("/surveys/:id/responses", c.response.List)
		admin.GET("/surveys/:id/analytics", c.analytics.SurveyAnalytics)
		admin.GET("/surveys/:id/questions/:qid/analytics", c.analytics.QuestionAnalytics)
		admin.POST("/surveys/:id/analytics/filter", c.analytics.FilteredAnalytics)
		admin.GET("/surveys/:id/export", c.analytics.Export)
	}
}
