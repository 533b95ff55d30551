package router

import (
	"github.com/gin-gonic/gin"

	"github.com/westfield-hs/scheduler-api/internal/handler"
	"github.com/westfield-hs/scheduler-api/internal/middleware"
	"github.com/westfield-hs/scheduler-api/internal/models"
	"github.com/westfield-hs/scheduler-api/internal/service"
)

// Handlers collects every HTTP handler the router mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Schedule *handler.ScheduleHandler
	Approval *handler.ApprovalHandler
	Roster   *handler.RosterHandler
	Review   *handler.ReviewHandler
	Settings *handler.SettingsHandler
	Export   *handler.ExportHandler
	Student  *handler.StudentHandler
}

// Register mounts the API surface under prefix. Every route except the auth
// entry points requires a valid access token; role guards follow the
// workflow's ownership rules.
func Register(r *gin.Engine, prefix string, auth *service.AuthService, exports *service.ExportService, h Handlers) {
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)

		protected := authGroup.Group("", middleware.JWT(auth))
		protected.POST("/logout", h.Auth.Logout)
		protected.POST("/change-password", h.Auth.ChangePassword)
		protected.GET("/me", h.Auth.Me)
	}

	secured := api.Group("", middleware.JWT(auth))

	counselors := middleware.RequireRoles(models.RoleCounselor, models.RoleAdmin)
	gatekeepers := middleware.RequireRoles(models.RoleTeacher, models.RoleCounselor, models.RoleAdmin)
	selfOrCounselor := middleware.RBAC("SELF", string(models.RoleCounselor), string(models.RoleAdmin))

	courses := secured.Group("/courses")
	{
		courses.GET("", h.Catalog.Search)
		courses.GET("/:code", h.Catalog.Get)
		courses.POST("", counselors, h.Catalog.Create)
		courses.PUT("/:code", counselors, h.Catalog.Update)
		courses.DELETE("/:code", counselors, h.Catalog.Delete)
		courses.PUT("/:code/description", gatekeepers, h.Catalog.UpdateDescription)
	}

	secured.GET("/students", counselors, h.Student.Directory)
	secured.POST("/students", counselors, h.Student.Enroll)

	students := secured.Group("/students/:studentId")
	{
		students.GET("/schedule", selfOrCounselor, h.Schedule.Get)
		students.PUT("/schedule", selfOrCounselor, h.Schedule.Save)
		students.DELETE("/schedule", counselors, h.Schedule.Reset)
		students.POST("/schedule/signoff", counselors, h.Schedule.SignOff)
		students.GET("/schedule/approvals", selfOrCounselor, h.Schedule.ApprovalCounts)
		if exports.Enabled() {
			students.GET("/schedule.pdf", selfOrCounselor, h.Export.SchedulePDF)
		}
	}

	approvals := secured.Group("/approvals")
	{
		approvals.GET("/pending", counselors, h.Approval.Pending)
		approvals.PUT("/:studentId/:courseCode", gatekeepers, h.Approval.SetDecision)
	}

	secured.GET("/teacher/roster", middleware.RequireRoles(models.RoleTeacher), h.Approval.TeacherRoster)

	secured.GET("/roster", counselors, h.Roster.List)
	secured.GET("/roster/:studentId/adjacent", counselors, h.Roster.Adjacent)
	if exports.Enabled() {
		secured.GET("/exports/roster.csv", counselors, h.Export.RosterCSV)
	}

	review := secured.Group("/review", counselors)
	{
		review.POST("/open/:studentId", h.Review.Open)
		review.GET("/state", h.Review.State)
		review.POST("/courses", h.Review.AddCourse)
		review.POST("/courses/remove", h.Review.RemoveItem)
		review.POST("/electives/move", h.Review.MoveElective)
		review.PUT("/notes", h.Review.SetNotes)
		review.POST("/commit", h.Review.Commit)
		review.POST("/reset", h.Review.Reset)
		review.POST("/signoff", h.Review.SignOff)
		review.POST("/navigate", h.Review.Navigate)
		review.PUT("/filter", h.Review.SetFilter)
		review.POST("/discard", h.Review.Discard)
	}

	settings := secured.Group("/settings", counselors)
	{
		settings.GET("/grade-locks", h.Settings.GradeLocks)
		settings.PUT("/grade-locks/:grade", h.Settings.SetGradeLock)
	}
}
