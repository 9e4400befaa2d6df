package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/costra/costra/application/usecase"
	"github.com/costra/costra/domain"
	"github.com/costra/costra/infrastructure/http/response"
)

// RecipeHandler translates HTTP requests into recipe usecase calls.
type RecipeHandler struct {
	recipes *usecase.RecipeUseCase
}

func NewRecipeHandler(recipes *usecase.RecipeUseCase) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

func (h *RecipeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/recipes", h.Create).Methods("POST")
	router.HandleFunc("/api/v1/recipes", h.List).Methods("GET")
	router.HandleFunc("/api/v1/recipes/{id}", h.Get).Methods("GET")
	router.HandleFunc("/api/v1/recipes/{id}", h.Update).Methods("PATCH")
	router.HandleFunc("/api/v1/recipes/{id}", h.Delete).Methods("DELETE")
	router.HandleFunc("/api/v1/recipes/{id}/restore", h.Restore).Methods("POST")
	router.HandleFunc("/api/v1/recipes/{id}/cost", h.Cost).Methods("GET")
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	req.ActorID = actorID(r)

	result, err := h.recipes.CreateRecipe(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Recipe created", result)
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	items, total, err := h.recipes.ListRecipes(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Recipes fetched", map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.GetRecipe(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Recipe fetched", recipe)
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req usecase.UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	req.ID = mux.Vars(r)["id"]
	req.ActorID = actorID(r)

	result, err := h.recipes.UpdateRecipe(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Recipe updated", result)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.DeleteRecipe(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Recipe deleted", nil)
}

func (h *RecipeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.RestoreRecipe(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Recipe restored", nil)
}

// costLineView renders one breakdown line with monetary rounding applied.
// All intermediate math upstream keeps full precision; this is the
// presentation edge where two-decimal money and four-decimal quantities
// are fixed.
type costLineView struct {
	IngredientID   string `json:"ingredient_id"`
	IngredientName string `json:"ingredient_name"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	LineCost       string `json:"line_cost"`
}

type recipeCostView struct {
	Recipe    *domain.Recipe `json:"recipe"`
	Lines     []costLineView `json:"lines"`
	TotalCost string         `json:"total_cost"`
}

func (h *RecipeHandler) Cost(w http.ResponseWriter, r *http.Request) {
	fresh := r.URL.Query().Get("fresh") == "true"

	result, err := h.recipes.GetRecipeWithCost(r.Context(), mux.Vars(r)["id"], fresh)
	if err != nil {
		writeError(w, err)
		return
	}

	lines := make([]costLineView, 0, len(result.Breakdown.Lines))
	for _, line := range result.Breakdown.Lines {
		lines = append(lines, costLineView{
			IngredientID:   line.IngredientID,
			IngredientName: line.IngredientName,
			Quantity:       line.Quantity.StringFixed(4),
			UnitPrice:      line.UnitPrice.StringFixed(2),
			LineCost:       line.LineCost.StringFixed(2),
		})
	}
	view := recipeCostView{
		Recipe:    result.Recipe,
		Lines:     lines,
		TotalCost: result.Breakdown.TotalCost.StringFixed(2),
	}
	response.Success(w, http.StatusOK, "Recipe cost calculated", view)
}
