package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nutrilog/internal/models"
	"nutrilog/internal/nutrition"
	"nutrilog/internal/service"
)

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// Meals

type overrideTotals struct {
	TotalCalories float64            `json:"totalCalories"`
	TotalMacros   models.MacroTotals `json:"totalMacros"`
}

type mealRequest struct {
	Date           string               `json:"date"`
	Foods          []nutrition.LineItem `json:"foods"`
	OverrideTotals *overrideTotals      `json:"overrideTotals"`
}

func (r mealRequest) input() (service.MealInput, error) {
	in := service.MealInput{Foods: r.Foods}
	if r.Date != "" {
		d, err := nutrition.ParseDay(r.Date)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	if o := r.OverrideTotals; o != nil {
		in.Override = &nutrition.Totals{
			Calories:      o.TotalCalories,
			Protein:       o.TotalMacros.Protein,
			Carbohydrates: o.TotalMacros.Carbs,
			Fat:           o.TotalMacros.Fats,
		}
	}
	return in, nil
}

// mealError reports an unknown food in a submission as a bad request
// rather than a missing resource.
func (h *Handler) mealError(c *gin.Context, err error) {
	var nf *service.NotFoundError
	if errors.As(err, &nf) && nf.Resource == "food" {
		c.JSON(http.StatusBadRequest, gin.H{"error": nf.Error(), "field": "foods"})
		return
	}
	h.writeError(c, err)
}

func (h *Handler) createMeal(c *gin.Context) {
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.svc.CreateMeal(c.Request.Context(), callerFrom(c).UserID, in)
	if err != nil {
		h.mealError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) updateMeal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req mealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.svc.UpdateMeal(c.Request.Context(), callerFrom(c).UserID, id, in)
	if err != nil {
		h.mealError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listMeals(c *gin.Context) {
	meals, err := h.svc.ListMeals(c.Request.Context(), callerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (h *Handler) getMeal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, err := h.svc.GetMeal(c.Request.Context(), callerFrom(c).UserID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Nutrition logs

func (h *Handler) listNutritionLogs(c *gin.Context) {
	logs, err := h.svc.ListNutritionLogs(c.Request.Context(), callerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *Handler) getNutritionLog(c *gin.Context) {
	d, err := time.Parse(nutrition.DateLayout, c.Param("date"))
	if err != nil {
		badRequest(c, "invalid date, use YYYY-MM-DD")
		return
	}
	l, err := h.svc.GetNutritionLog(c.Request.Context(), callerFrom(c).UserID, d)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// Goals

func (h *Handler) myGoal(c *gin.Context) {
	g, err := h.svc.MyGoal(c.Request.Context(), callerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) createGoal(c *gin.Context) {
	var in service.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.svc.CreateGoal(c.Request.Context(), callerFrom(c).UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) updateGoal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in service.GoalInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.svc.UpdateGoal(c.Request.Context(), callerFrom(c), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) listGoals(c *gin.Context) {
	goals, err := h.svc.ListGoals(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *Handler) getGoal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	g, err := h.svc.GetGoal(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) deleteGoal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteGoal(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal removed"})
}

// Foods

func (h *Handler) searchFoods(c *gin.Context) {
	page := 1
	if p := c.Query("pageNumber"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			badRequest(c, "invalid pageNumber")
			return
		}
		page = n
	}
	res, err := h.svc.SearchFoods(c.Request.Context(), c.Query("keyword"), page)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) topFoods(c *gin.Context) {
	foods, err := h.svc.TopFoods(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}

func (h *Handler) getFood(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	f, err := h.svc.GetFood(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) createFood(c *gin.Context) {
	var in service.FoodInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	f, err := h.svc.CreateFood(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) updateFood(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in service.FoodInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	f, err := h.svc.UpdateFood(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) deleteFood(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteFood(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "food removed"})
}

func (h *Handler) addReview(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in service.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.svc.AddReview(c.Request.Context(), callerFrom(c).UserID, id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// Users

func (h *Handler) register(c *gin.Context) {
	var in service.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.svc.Register(c.Request.Context(), callerFrom(c).UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) profile(c *gin.Context) {
	p, err := h.svc.Profile(c.Request.Context(), callerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var in service.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.svc.UpdateProfile(c.Request.Context(), callerFrom(c).UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	u, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in service.AdminUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user removed"})
}

// Suggestions

func (h *Handler) suggest(c *gin.Context) {
	s, err := h.svc.Suggest(c.Request.Context(), callerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
