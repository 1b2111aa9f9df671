package handler

import (
	"encoding/json"
	"net/http"

	"algo_answer_hub/internal/api/middleware"
	"algo_answer_hub/internal/app/store"
	"algo_answer_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type SolutionHandler struct {
	stores *store.Manager
}

func NewSolutionHandler(stores *store.Manager) *SolutionHandler {
	return &SolutionHandler{stores: stores}
}

func (h *SolutionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/{questionID}/solutions", h.createSolution)
		authed.Post("/{questionID}/solutions/{solutionID}/comments", h.createComment)
		authed.Post("/{questionID}/solutions/{solutionID}/like", h.toggleLike)
	})
}

func (h *SolutionHandler) viewerStore(w http.ResponseWriter, r *http.Request) (*store.QuestionStore, bool) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	s, err := h.stores.StoreFor(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return nil, false
	}
	return s, true
}

func (h *SolutionHandler) createSolution(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionID")

	var req store.AddSolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	s, ok := h.viewerStore(w, r)
	if !ok {
		return
	}

	solution, err := s.AddSolution(r.Context(), questionID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, solution)
}

func (h *SolutionHandler) createComment(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionID")
	solutionID := chi.URLParam(r, "solutionID")

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	s, ok := h.viewerStore(w, r)
	if !ok {
		return
	}

	comment, err := s.AddComment(r.Context(), questionID, solutionID, req.Content)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *SolutionHandler) toggleLike(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionID")
	solutionID := chi.URLParam(r, "solutionID")

	s, ok := h.viewerStore(w, r)
	if !ok {
		return
	}

	if err := s.ToggleLike(r.Context(), questionID, solutionID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	question, err := s.GetQuestionByID(questionID)
	if err != nil {
		common.RespondWithMessage(w, http.StatusOK, "Like updated")
		return
	}
	for _, sol := range question.Solutions {
		if sol.ID == solutionID {
			common.RespondWithJSON(w, http.StatusOK, sol)
			return
		}
	}
	common.RespondWithMessage(w, http.StatusOK, "Like updated")
}
