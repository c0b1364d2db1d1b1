package api

import (
	"net/http"

	"fitcoach/internal/domain"
	"fitcoach/internal/metrics"
	"fitcoach/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	gateway service.StudentGateway,
	students StudentReader,
	m *metrics.Manager,
	metricsHandler http.Handler, // nil leaves /metrics unrouted
) {
	authHandler := NewAuthHandler(authService)
	studentHandler := NewStudentHandler(gateway, students)

	router.Use(MetricsMiddleware(m))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/me", authHandler.Me)

		coachOnly := RoleMiddleware(domain.RoleCoach)

		protected.GET("/students", coachOnly, studentHandler.ListStudents)
		protected.POST("/students", coachOnly, studentHandler.CreateStudent)

		// Everything below is open to the coach and to the student the
		// record belongs to, unless marked coach-only.
		studentGroup := protected.Group("/students/:id")
		studentGroup.Use(StudentAccessMiddleware())
		{
			studentGroup.GET("", studentHandler.GetStudent)
			studentGroup.PATCH("", studentHandler.PatchStudent)
			studentGroup.POST("/history", studentHandler.LogWorkout)
			studentGroup.POST("/assessments", studentHandler.AddAssessment)
			studentGroup.PUT("/photo", studentHandler.UpdatePhoto)

			studentGroup.PUT("/periodization/:discipline", coachOnly, studentHandler.SavePeriodization)

			studentGroup.PUT("/nutrition", coachOnly, studentHandler.SaveNutritionProfile)
			studentGroup.POST("/nutrition/logs", studentHandler.AddMealLog)
			studentGroup.POST("/nutrition/plans", coachOnly, studentHandler.AddMealPlan)
		}
	}
}
