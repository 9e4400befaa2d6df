package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/costra/costra/application/usecase"
	"github.com/costra/costra/infrastructure/http/response"
	"github.com/costra/costra/pkg/apperror"
)

// actorID resolves the audit actor from the X-User-ID header. Requests from
// internal tooling arrive without one.
func actorID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "system"
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	return page, limit
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperror.MapError(err)
	response.Error(w, appErr.Status, appErr.Message)
}

// IngredientHandler translates HTTP requests into ingredient usecase calls.
type IngredientHandler struct {
	ingredients *usecase.IngredientUseCase
}

func NewIngredientHandler(ingredients *usecase.IngredientUseCase) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

func (h *IngredientHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/ingredients", h.Create).Methods("POST")
	router.HandleFunc("/api/v1/ingredients", h.List).Methods("GET")
	router.HandleFunc("/api/v1/ingredients/import/csv", h.ImportCSV).Methods("POST")
	router.HandleFunc("/api/v1/ingredients/import/prices", h.ImportPrices).Methods("POST")
	router.HandleFunc("/api/v1/ingredients/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/v1/ingredients/{id}", h.Delete).Methods("DELETE")
	router.HandleFunc("/api/v1/ingredients/{id}/restore", h.Restore).Methods("POST")
	router.HandleFunc("/api/v1/ingredients/{id}/prices", h.AddPrice).Methods("POST")
	router.HandleFunc("/api/v1/ingredients/{id}/latest-price", h.LatestPrice).Methods("GET")
}

func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateIngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	req.ActorID = actorID(r)

	result, err := h.ingredients.CreateIngredient(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Ingredient created", result)
}

func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	items, total, err := h.ingredients.ListIngredients(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Ingredients fetched", map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	ingredient, err := h.ingredients.GetIngredient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Ingredient fetched", ingredient)
}

func (h *IngredientHandler) AddPrice(w http.ResponseWriter, r *http.Request) {
	var req usecase.AddPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	req.IngredientID = mux.Vars(r)["id"]
	req.ActorID = actorID(r)

	result, err := h.ingredients.AddPrice(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Price added", result)
}

func (h *IngredientHandler) LatestPrice(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingredients.GetLatestPrice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Latest price fetched", result)
}

func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ingredients.DeleteIngredient(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Ingredient deleted", nil)
}

func (h *IngredientHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.ingredients.RestoreIngredient(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Ingredient restored", nil)
}

func (h *IngredientHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	result, err := h.ingredients.ImportIngredientsCSV(r.Context(), r.Body, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Ingredients imported", result)
}

func (h *IngredientHandler) ImportPrices(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	result, err := h.ingredients.ImportPriceChangesJSON(r.Context(), r.Body, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Price changes imported", result)
}
