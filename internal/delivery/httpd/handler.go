package httpd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service"
	"github.com/Imtihan-Edutech/Swanirbhar/pkg/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	userService     service.UserService
	projectService  service.ProjectService
	courseService   service.CourseService
	contentService  service.ContentService
	wishlistService service.WishlistService
	chatService     service.ChatService
	promptService   service.PromptService
	store           Pinger
	maxUploadSize   int64
	logger          zerolog.Logger
}

type Services struct {
	Users    service.UserService
	Projects service.ProjectService
	Courses  service.CourseService
	Contents service.ContentService
	Wishlist service.WishlistService
	Chat     service.ChatService
	Prompts  service.PromptService
}

// NewHandler wires the services to HTTP. store may be nil when there is
// nothing to ping (the in-memory driver).
func NewHandler(services Services, store Pinger, maxUploadSize int64, logger zerolog.Logger) *Handler {
	return &Handler{
		userService:     services.Users,
		projectService:  services.Projects,
		courseService:   services.Courses,
		contentService:  services.Contents,
		wishlistService: services.Wishlist,
		chatService:     services.Chat,
		promptService:   services.Prompts,
		store:           store,
		maxUploadSize:   maxUploadSize,
		logger:          logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/{id}", h.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/", h.ListUsers)
			r.Post("/createUsers", h.CreateUser)
			r.Put("/updateDetails/{id}", h.UpdateProfile)
			r.Put("/editUser/{id}", h.EditUser)
		})
	})

	router.Route("/project", func(r chi.Router) {
		r.Get("/", h.ListProjects)
		r.Get("/{id}", h.GetProject)
		r.Get("/{id}/grades/{userId}", h.GetGrade)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.With(h.RequireCapability(models.RoleEntrepreneur, "only entrepreneurs can create projects")).
				Post("/", h.CreateProject)
			r.Put("/{id}", h.UpdateDeadline)
			r.Delete("/{id}", h.DeleteProject)
			r.Post("/{id}/submit-link", h.SubmitLink)
			r.Post("/{id}/give-grade", h.GiveGrade)
		})
	})

	router.Route("/course", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/", h.ListCourses)
		r.Get("/myAddedCourses", h.MyAddedCourses)
		r.Get("/myEnrolledCourses", h.MyEnrolledCourses)
		r.Get("/{id}", h.GetCourse)
		r.With(h.RequireCapability(models.RoleFreelancer, "only freelancers can create courses")).
			Post("/", h.CreateCourse)
		r.Put("/{id}", h.UpdateCourse)
		r.Delete("/{id}", h.DeleteCourse)
		r.Put("/enroll/{id}", h.Enroll)
		r.Post("/{courseId}/topics", h.AddLesson)
		r.Put("/{courseId}/topics/{topicId}", h.UpdateLesson)
	})

	router.Route("/article", h.contentRoutes(models.ContentKindArticle))
	router.Route("/blog", h.contentRoutes(models.ContentKindBlog))
	router.Route("/caseStudy", h.contentRoutes(models.ContentKindCaseStudy))

	router.Route("/wishlist", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/", h.GetWishlist)
		r.Post("/{courseId}", h.AddToWishlist)
		r.Delete("/{courseId}", h.RemoveFromWishlist)
	})

	router.Route("/promptLibrary", func(r chi.Router) {
		r.Get("/", h.ListPrompts)
		r.Get("/{id}", h.GetPrompt)
	})

	router.Route("/chat", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/sessions", h.StartChat)
		r.Get("/sessions/{id}", h.ChatHistory)
		r.Post("/sessions/{id}/messages", h.SendChatMessage)
		r.Delete("/sessions/{id}", h.EndChat)
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "swanirbhar",
		"timestamp": time.Now().UTC(),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("Health check: store unreachable")
			response["status"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// decode reads the JSON body into dst and writes a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.ReadJSON(w, r, dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, utils.ErrEmptyBody) {
			msg = "Request body is required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// handleServiceError maps an error kind to its status code. Unexpected
// errors are logged and their details never reach the client.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = &apperrors.Error{Kind: apperrors.KindUnexpected, Err: err}
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		if len(appErr.Fields) > 0 {
			fields := make(map[string]string, len(appErr.Fields))
			for _, f := range appErr.Fields {
				fields[f.Field] = f.Error
			}
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   http.StatusText(http.StatusBadRequest),
				"message": appErr.Error(),
				"fields":  fields,
			})
			return
		}
		writeError(w, http.StatusBadRequest, appErr.Error())
	case apperrors.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, appErr.Error())
	case apperrors.KindForbidden:
		writeError(w, http.StatusForbidden, appErr.Error())
	case apperrors.KindNotFound:
		writeError(w, http.StatusNotFound, appErr.Error())
	case apperrors.KindConflict:
		writeError(w, http.StatusConflict, appErr.Error())
	default:
		h.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	utils.SuccessResponse(w, http.StatusOK, data)
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	utils.SuccessResponse(w, http.StatusCreated, data)
}
