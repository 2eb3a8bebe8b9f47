package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/druk-edu/school-admin-service/internal/auth"
	"github.com/druk-edu/school-admin-service/internal/models"
	"github.com/druk-edu/school-admin-service/internal/services"
	"github.com/druk-edu/school-admin-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	userHandler       *UserHandler
	classHandler      *ClassHandler
	timetableHandler  *TimetableHandler
	attendanceHandler *AttendanceHandler
	leaveHandler      *LeaveHandler
	dashboardHandler  *DashboardHandler
	authMiddleware    *JWTAuthMiddleware
	rateLimiter       *RateLimiter
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	tokens *auth.TokenManager,
	rateLimiter *RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		classHandler:      NewClassHandler(serviceManager.Class(), logger),
		timetableHandler:  NewTimetableHandler(serviceManager.Timetable(), logger),
		attendanceHandler: NewAttendanceHandler(serviceManager.Attendance(), serviceManager.Export(), logger),
		leaveHandler:      NewLeaveHandler(serviceManager.Leave(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:    NewJWTAuthMiddleware(tokens),
		rateLimiter:       rateLimiter,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public auth routes, rate limited by client IP
	authRoutes := v1.Group("/auth")
	authRoutes.Use(hm.rateLimiter.Middleware())
	{
		authRoutes.POST("/register", hm.authHandler.Register)
		authRoutes.POST("/login", hm.authHandler.Login)
	}

	// Everything else requires a valid token
	protected := v1.Group("")
	protected.Use(hm.authMiddleware.AuthMiddleware())
	protected.Use(hm.rateLimiter.Middleware())
	{
		// User routes
		users := protected.Group("/users")
		{
			users.GET("/profile", hm.userHandler.GetProfile)
			users.PUT("/profile", hm.userHandler.UpdateProfile)

			// Admin-only user management
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.DeactivateUser)
		}

		// Student directory - Teachers and Admins only
		protected.GET("/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.userHandler.ListStudents)

		// Class routes
		classes := protected.Group("/classes")
		{
			classes.GET("", hm.classHandler.ListClasses)
			classes.GET("/:id", hm.classHandler.GetClass)

			classes.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.classHandler.CreateClass)
			classes.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.classHandler.DeleteClass)

			// Roster management - Teachers and Admins only
			classes.GET("/:id/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.classHandler.GetRoster)
			classes.POST("/:id/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.classHandler.AddStudent)
			classes.DELETE("/:id/students/:student_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.classHandler.RemoveStudent)
		}

		// Timetable routes
		timetable := protected.Group("/timetable")
		{
			timetable.GET("", hm.timetableHandler.ListTimetable)
			timetable.GET("/student", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.timetableHandler.ListStudentTimetable)

			timetable.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.timetableHandler.CreateSlot)
			timetable.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.timetableHandler.DeleteSlot)
		}

		// Attendance routes
		attendance := protected.Group("/attendance")
		{
			attendance.POST("/mark", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.attendanceHandler.MarkAttendance)
			attendance.GET("", hm.attendanceHandler.ListAttendance)
			attendance.GET("/student", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attendanceHandler.GetStudentMonth)
			attendance.GET("/summary", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attendanceHandler.GetSummary)
			attendance.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.attendanceHandler.ExportAttendance)
		}

		// Leave routes
		leaves := protected.Group("/leaves")
		{
			leaves.POST("/apply", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.leaveHandler.ApplyLeave)
			leaves.GET("/my-leaves", hm.leaveHandler.MyLeaves)
			leaves.GET("/all", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.leaveHandler.ListAll)
			leaves.PUT("/:id/status", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.leaveHandler.DecideLeave)
		}

		// Dashboard routes
		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/teacher", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.dashboardHandler.TeacherDashboard)
			dashboard.GET("/student", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.dashboardHandler.StudentDashboard)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "school-admin-service",
		})
	})
}
