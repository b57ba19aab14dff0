package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/service"
)

// PlanHandler serves /api/workouts and /api/diets.
type PlanHandler struct {
	Plans *service.PlanService
}

type workoutReq struct {
	MemberID    string           `json:"member_id" validate:"required"`
	Title       string           `json:"title" validate:"required,max=150"`
	Description string           `json:"description" validate:"max=2000"`
	Exercises   []model.Exercise `json:"exercises" validate:"max=100"`
}

type dietReq struct {
	MemberID      string       `json:"member_id" validate:"required"`
	Title         string       `json:"title" validate:"required,max=150"`
	Meals         []model.Meal `json:"meals" validate:"max=20"`
	DailyCalories int          `json:"daily_calories" validate:"gte=0"`
	Notes         string       `json:"notes" validate:"max=2000"`
}

func (h *PlanHandler) ListWorkouts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ps, err := h.Plans.ListWorkouts(ctx, caller(c), c.Param("memberId"))
	if err != nil {
		return fail(c, err)
	}
	return list(c, ps)
}

func (h *PlanHandler) CreateWorkout(c echo.Context) error {
	var req workoutReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plans.CreateWorkout(ctx, caller(c), service.WorkoutInput{
		MemberID: req.MemberID, Title: req.Title, Description: req.Description, Exercises: req.Exercises,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PlanHandler) UpdateWorkout(c echo.Context) error {
	var req workoutReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plans.UpdateWorkout(ctx, caller(c), c.Param("id"), service.WorkoutInput{
		MemberID: req.MemberID, Title: req.Title, Description: req.Description, Exercises: req.Exercises,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) DeleteWorkout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Plans.DeleteWorkout(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CompleteExercise: POST /api/workouts/:id/exercises/:index/complete
func (h *PlanHandler) CompleteExercise(c echo.Context) error {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return fail(c, apperr.Validation("index must be a number"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plans.CompleteExercise(ctx, caller(c), c.Param("id"), idx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) ListDiets(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ps, err := h.Plans.ListDiets(ctx, caller(c), c.Param("memberId"))
	if err != nil {
		return fail(c, err)
	}
	return list(c, ps)
}

func (h *PlanHandler) CreateDiet(c echo.Context) error {
	var req dietReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plans.CreateDiet(ctx, caller(c), service.DietInput{
		MemberID: req.MemberID, Title: req.Title, Meals: req.Meals, DailyCalories: req.DailyCalories, Notes: req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PlanHandler) UpdateDiet(c echo.Context) error {
	var req dietReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Plans.UpdateDiet(ctx, caller(c), c.Param("id"), service.DietInput{
		MemberID: req.MemberID, Title: req.Title, Meals: req.Meals, DailyCalories: req.DailyCalories, Notes: req.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) DeleteDiet(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Plans.DeleteDiet(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
