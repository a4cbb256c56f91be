package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairchancejobs/jobboard-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jobboard-api-service",
		})
	})

	ingestHandler := handler.NewIngestHandler(deps)
	scrapedJobHandler := handler.NewScrapedJobHandler(deps)
	submissionHandler := handler.NewSubmissionHandler(deps)
	applicationHandler := handler.NewApplicationHandler(deps)
	profileHandler := handler.NewProfileHandler(deps)
	webhookHandler := handler.NewWebhookHandler(deps)
	chatHandler := handler.NewChatHandler(deps)

	auth := JWTAuthMiddleware(deps.Config.Auth.JWTSecret)

	// Webhooks: provider-authenticated, no user session
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/sms", webhookHandler.InboundSMS)
	}

	v1 := r.Group("/api/v1")
	{
		// Ingest: called by the external scrape pipeline
		ingest := v1.Group("/ingest", PipelineSecretMiddleware(deps.Config.Pipeline.Secret))
		{
			ingest.POST("/jobs", ingestHandler.IngestJob)
		}

		// Public board
		v1.GET("/jobs", submissionHandler.ListJobs)
		v1.GET("/jobs/search", submissionHandler.SearchJobs)

		// Seeker endpoints
		v1.POST("/jobs/:id/apply", auth, applicationHandler.Apply)
		v1.GET("/profile", auth, profileHandler.GetProfile)
		v1.PUT("/profile", auth, profileHandler.UpsertProfile)
		v1.POST("/submissions", auth, submissionHandler.CreateSubmission)
		v1.POST("/chat", auth, chatHandler.Chat)

		// Employer triage via magic link
		employer := v1.Group("/employer", MagicLinkMiddleware(deps.MagicLink))
		{
			employer.GET("/candidates", applicationHandler.Candidates)
			employer.POST("/applications/:id/connect", applicationHandler.Connect)
			employer.POST("/applications/:id/pass", applicationHandler.Pass)
		}

		// Admin
		admin := v1.Group("/admin", auth, AdminMiddleware(deps.Config.Auth.AdminEmails))
		{
			admin.GET("/submissions", submissionHandler.ListSubmissions)
			admin.POST("/submissions/:id/approve", submissionHandler.ApproveSubmission)
			admin.POST("/submissions/:id/reject", submissionHandler.RejectSubmission)

			admin.GET("/scraped-jobs", scrapedJobHandler.ListScrapedJobs)
			admin.GET("/scraped-jobs/failed", scrapedJobHandler.GetRecentFailed)
			admin.GET("/scraped-jobs/search", scrapedJobHandler.SearchScrapedJobs)
			admin.DELETE("/scraped-jobs/:id", scrapedJobHandler.DeleteScrapedJob)
			admin.POST("/scraped-jobs/bulk-delete", scrapedJobHandler.BulkDeleteScrapedJobs)
			admin.POST("/scraped-jobs/nuke", scrapedJobHandler.NukeScrapedJobs)

			admin.GET("/inbound-messages", webhookHandler.ListInboundMessages)

			admin.GET("/cache/stats", scrapedJobHandler.CacheStats)
			admin.POST("/cache/clear", scrapedJobHandler.ClearCache)
			admin.GET("/fair-chance/stats", scrapedJobHandler.FairChanceStats)
		}
	}

	return r
}
