package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"algo_answer_hub/internal/api/middleware"
	"algo_answer_hub/internal/app/store"
	"algo_answer_hub/internal/common"
	"algo_answer_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type QuestionHandler struct {
	stores *store.Manager
}

func NewQuestionHandler(stores *store.Manager) *QuestionHandler {
	return &QuestionHandler{stores: stores}
}

func (h *QuestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listQuestions)               // GET /api/v1/questions
	r.Get("/{questionID}", h.getQuestion)     // GET /api/v1/questions/{id}

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.RequireAuth)
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createQuestion) // POST /api/v1/questions
	})
}

func (h *QuestionHandler) viewerStore(w http.ResponseWriter, r *http.Request) (*store.QuestionStore, bool) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	s, err := h.stores.StoreFor(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return nil, false
	}
	return s, true
}

func (h *QuestionHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	searchTerm := r.URL.Query().Get("search")
	difficultyStr := r.URL.Query().Get("difficulty")
	tagsStr := r.URL.Query().Get("tags") // comma-separated tag names

	var tagsFilter []string
	if tagsStr != "" {
		tagsFilter = strings.Split(tagsStr, ",")
	}

	s, ok := h.viewerStore(w, r)
	if !ok {
		return
	}

	questions := s.Filter(searchTerm, tagsFilter, model.Difficulty(difficultyStr))

	type QuestionsResponse struct {
		Questions []model.Question `json:"questions"`
		Total     int              `json:"total"`
		Loading   bool             `json:"loading"`
		Error     string           `json:"error,omitempty"`
	}
	resp := QuestionsResponse{
		Questions: questions,
		Total:     len(questions),
		Loading:   s.Loading(),
	}
	if err := s.Err(); err != nil {
		resp.Error = err.Error()
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *QuestionHandler) getQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionID")

	s, ok := h.viewerStore(w, r)
	if !ok {
		return
	}

	question, err := s.GetQuestionByID(questionID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req store.AddQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	s, ok := h.viewerStore(w, r)
	if !ok {
		return
	}

	question, err := s.AddQuestion(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, question)
}
