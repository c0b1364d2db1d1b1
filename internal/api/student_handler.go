package api

import (
	"errors"
	"net/http"
	"strings"

	"fitcoach/internal/domain"
	"fitcoach/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// StudentReader is the read side of the local store.
type StudentReader interface {
	GetAll() []domain.Student
	Get(id string) (domain.Student, bool)
}

type StudentHandler struct {
	gateway  service.StudentGateway
	students StudentReader
}

func NewStudentHandler(gateway service.StudentGateway, students StudentReader) *StudentHandler {
	return &StudentHandler{gateway: gateway, students: students}
}

// --- DTOs ---

type CreateStudentRequest struct {
	Name  string     `json:"name" binding:"required"`
	Email string     `json:"email" binding:"omitempty,email"`
	Sex   domain.Sex `json:"sex" binding:"omitempty,oneof=male female"`
}

type LogWorkoutRequest struct {
	WorkoutID       string `json:"workoutId"`
	Name            string `json:"name"`
	DurationSeconds int    `json:"durationSeconds" binding:"gte=0"`
	Date            string `json:"date"`
}

type PhotoRequest struct {
	Photo string `json:"photo" binding:"required"`
}

// --- Handler Methods ---

// ListStudents godoc
// @Summary List every student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Student
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	students := h.students.GetAll()
	for i := range students {
		students[i] = students[i].Ordered()
	}
	c.JSON(http.StatusOK, students)
}

// CreateStudent godoc
// @Summary Register a new student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param student body CreateStudentRequest true "Student details"
// @Success 201 {object} domain.Student
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already in use"
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.RegisterStudent(c.Request.Context(), domain.Student{
		Name:  req.Name,
		Email: req.Email,
		Sex:   req.Sex,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// GetStudent godoc
// @Summary Get one student, history and assessments newest first
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} domain.Student
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Not found"
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	student, ok := h.students.Get(c.Param("id"))
	if !ok {
		abortWithError(c, http.StatusNotFound, service.ErrStudentNotFound.Error())
		return
	}
	c.JSON(http.StatusOK, student.Ordered())
}

// PatchStudent godoc
// @Summary Merge a partial update into a student
// @Description Top-level fields in the body replace the stored ones. Unknown fields are ignored.
// @Description Workouts, nutrition and periodization plans are written by the coach only.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} domain.Student
// @Failure 400 {object} gin.H "Malformed body or invalid email"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Not found"
// @Failure 409 {object} gin.H "Email already in use"
// @Router /students/{id} [patch]
func (h *StudentHandler) PatchStudent(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read request body")
		return
	}
	patch, unknown, err := domain.DecodeStudentPatch(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if len(unknown) > 0 {
		log.WithFields(log.Fields{
			"student_id": c.Param("id"),
			"fields":     unknown,
		}).Warnln("unknown student fields ignored")
	}

	session, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if owned := patch.CoachOwnedFields(); !session.IsCoach() && len(owned) > 0 {
		abortWithError(c, http.StatusForbidden, "Access denied: only the coach can change "+strings.Join(owned, ", "))
		return
	}

	student, err := h.gateway.SaveStudentData(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.Ordered())
}

// LogWorkout godoc
// @Summary Record an executed workout
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param entry body LogWorkoutRequest true "Session"
// @Success 201 {object} domain.Student
// @Router /students/{id}/history [post]
func (h *StudentHandler) LogWorkout(c *gin.Context) {
	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.LogWorkout(c.Request.Context(), c.Param("id"), domain.WorkoutHistoryEntry{
		WorkoutID:       req.WorkoutID,
		Name:            req.Name,
		DurationSeconds: req.DurationSeconds,
		Date:            req.Date,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student.Ordered())
}

// AddAssessment godoc
// @Summary Record a physical assessment
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 201 {object} domain.Student
// @Router /students/{id}/assessments [post]
func (h *StudentHandler) AddAssessment(c *gin.Context) {
	var assessment domain.PhysicalAssessment
	if err := c.ShouldBindJSON(&assessment); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.AddAssessment(c.Request.Context(), c.Param("id"), assessment)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student.Ordered())
}

// SavePeriodization godoc
// @Summary Replace the strength or running periodization plan
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param discipline path string true "strength or running"
// @Success 200 {object} domain.Student
// @Failure 400 {object} gin.H "Unknown discipline"
// @Router /students/{id}/periodization/{discipline} [put]
func (h *StudentHandler) SavePeriodization(c *gin.Context) {
	discipline, err := domain.ParseDiscipline(c.Param("discipline"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	var plan domain.PeriodizationPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.SavePeriodization(c.Request.Context(), c.Param("id"), discipline, plan)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.Ordered())
}

// SaveNutritionProfile godoc
// @Summary Replace goal, restrictions and macro targets
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} domain.Student
// @Router /students/{id}/nutrition [put]
func (h *StudentHandler) SaveNutritionProfile(c *gin.Context) {
	var profile domain.NutritionProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.SaveNutritionProfile(c.Request.Context(), c.Param("id"), profile)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.Ordered())
}

// AddMealLog godoc
// @Summary Log a meal
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 201 {object} domain.Student
// @Router /students/{id}/nutrition/logs [post]
func (h *StudentHandler) AddMealLog(c *gin.Context) {
	var meal domain.MealLog
	if err := c.ShouldBindJSON(&meal); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.AddMealLog(c.Request.Context(), c.Param("id"), meal)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student.Ordered())
}

// AddMealPlan godoc
// @Summary Attach a meal plan
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 201 {object} domain.Student
// @Router /students/{id}/nutrition/plans [post]
func (h *StudentHandler) AddMealPlan(c *gin.Context) {
	var plan domain.MealPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.AddMealPlan(c.Request.Context(), c.Param("id"), plan)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student.Ordered())
}

// UpdatePhoto godoc
// @Summary Set the profile photo
// @Description Accepts a URL or a base64 data URI.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param photo body PhotoRequest true "Photo"
// @Success 200 {object} domain.Student
// @Router /students/{id}/photo [put]
func (h *StudentHandler) UpdatePhoto(c *gin.Context) {
	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.gateway.UpdatePhoto(c.Request.Context(), c.Param("id"), req.Photo)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student.Ordered())
}

func respondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrStudentExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidStudent):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Errorln("unexpected service error")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
