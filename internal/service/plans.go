package service

import (
	"context"
	"strings"

	"github.com/iliyamo/gym-management/internal/apperr"
	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
)

// PlanService manages workout and diet plans. Staff write plans for members
// in their scope; members read their own and tick off exercises.
type PlanService struct {
	Users    UserStore
	Plans    PlanStore
	Notifier *Notifier
	Clock    Clock
}

// WorkoutInput is the writable part of a workout plan.
type WorkoutInput struct {
	MemberID    string
	Title       string
	Description string
	Exercises   []model.Exercise
}

func (in WorkoutInput) apply(p *model.WorkoutPlan) error {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	if p.Title == "" {
		return apperr.Validation("title is required")
	}
	ex := make([]model.Exercise, 0, len(in.Exercises))
	for _, e := range in.Exercises {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return apperr.Validation("every exercise needs a name")
		}
		if e.Sets < 0 || e.RestSeconds < 0 {
			return apperr.Validation("sets and rest_seconds cannot be negative")
		}
		ex = append(ex, e)
	}
	p.Exercises = ex
	return nil
}

// ListWorkouts returns a member's workout plans, the active one first.
func (s *PlanService) ListWorkouts(ctx context.Context, actor policy.Actor, memberID string) ([]model.WorkoutPlan, error) {
	u, err := loadMember(ctx, s.Users, actor, memberID, policy.Plan, policy.Read)
	if err != nil {
		return nil, err
	}
	out, err := s.Plans.ListWorkouts(ctx, u.ID)
	if err != nil {
		return nil, storeErr(err, "workout plan")
	}
	if out == nil {
		out = []model.WorkoutPlan{}
	}
	return out, nil
}

// CreateWorkout assigns a new active workout plan, retiring the previous one.
func (s *PlanService) CreateWorkout(ctx context.Context, actor policy.Actor, in WorkoutInput) (model.WorkoutPlan, error) {
	u, err := loadMember(ctx, s.Users, actor, in.MemberID, policy.Plan, policy.Create)
	if err != nil {
		return model.WorkoutPlan{}, err
	}
	p := model.WorkoutPlan{MemberID: u.ID, AuthorID: actor.ID}
	if err := in.apply(&p); err != nil {
		return model.WorkoutPlan{}, err
	}
	if err := s.Plans.CreateWorkout(ctx, &p); err != nil {
		return model.WorkoutPlan{}, storeErr(err, "workout plan")
	}
	s.Notifier.Notify(ctx, u.ID, model.NotifyWorkout, "New workout plan", p.Title, map[string]string{"plan_id": p.ID})
	return p, nil
}

func (s *PlanService) workout(ctx context.Context, actor policy.Actor, id string, act policy.Action) (model.WorkoutPlan, error) {
	if err := policy.Gate(actor); err != nil {
		return model.WorkoutPlan{}, err
	}
	p, err := s.Plans.GetWorkout(ctx, id)
	if err != nil {
		return model.WorkoutPlan{}, storeErr(err, "workout plan")
	}
	if _, err := loadMember(ctx, s.Users, actor, p.MemberID, policy.Plan, act); err != nil {
		return model.WorkoutPlan{}, err
	}
	return p, nil
}

// UpdateWorkout rewrites a plan. The member it belongs to cannot change.
func (s *PlanService) UpdateWorkout(ctx context.Context, actor policy.Actor, id string, in WorkoutInput) (model.WorkoutPlan, error) {
	p, err := s.workout(ctx, actor, id, policy.Update)
	if err != nil {
		return model.WorkoutPlan{}, err
	}
	if in.MemberID != "" && in.MemberID != p.MemberID {
		return model.WorkoutPlan{}, apperr.Validation("member_id cannot be changed")
	}
	if err := in.apply(&p); err != nil {
		return model.WorkoutPlan{}, err
	}
	if err := s.Plans.UpdateWorkout(ctx, &p); err != nil {
		return model.WorkoutPlan{}, storeErr(err, "workout plan")
	}
	s.Notifier.Notify(ctx, p.MemberID, model.NotifyWorkout, "Workout plan updated", p.Title, map[string]string{"plan_id": p.ID})
	return p, nil
}

// DeleteWorkout removes a plan.
func (s *PlanService) DeleteWorkout(ctx context.Context, actor policy.Actor, id string) error {
	p, err := s.workout(ctx, actor, id, policy.Delete)
	if err != nil {
		return err
	}
	return storeErr(s.Plans.DeleteWorkout(ctx, p.ID), "workout plan")
}

// CompleteExercise marks the exercise at index as done.
func (s *PlanService) CompleteExercise(ctx context.Context, actor policy.Actor, id string, index int) (model.WorkoutPlan, error) {
	p, err := s.workout(ctx, actor, id, policy.Complete)
	if err != nil {
		return model.WorkoutPlan{}, err
	}
	if index < 0 || index >= len(p.Exercises) {
		return model.WorkoutPlan{}, apperr.Validation("exercise index out of range")
	}
	out, err := s.Plans.CompleteExercise(ctx, p.ID, index, s.Clock.now())
	if err != nil {
		return model.WorkoutPlan{}, storeErr(err, "exercise")
	}
	return out, nil
}

// DietInput is the writable part of a diet plan.
type DietInput struct {
	MemberID      string
	Title         string
	Meals         []model.Meal
	DailyCalories int
	Notes         string
}

func (in DietInput) apply(p *model.DietPlan) error {
	p.Title = strings.TrimSpace(in.Title)
	p.Notes = strings.TrimSpace(in.Notes)
	p.DailyCalories = in.DailyCalories
	switch {
	case p.Title == "":
		return apperr.Validation("title is required")
	case in.DailyCalories < 0:
		return apperr.Validation("daily_calories cannot be negative")
	}
	meals := make([]model.Meal, 0, len(in.Meals))
	for _, m := range in.Meals {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return apperr.Validation("every meal needs a name")
		}
		if m.Foods == nil {
			m.Foods = []string{}
		}
		meals = append(meals, m)
	}
	p.Meals = meals
	return nil
}

// ListDiets returns a member's diet plans, the active one first.
func (s *PlanService) ListDiets(ctx context.Context, actor policy.Actor, memberID string) ([]model.DietPlan, error) {
	u, err := loadMember(ctx, s.Users, actor, memberID, policy.Plan, policy.Read)
	if err != nil {
		return nil, err
	}
	out, err := s.Plans.ListDiets(ctx, u.ID)
	if err != nil {
		return nil, storeErr(err, "diet plan")
	}
	if out == nil {
		out = []model.DietPlan{}
	}
	return out, nil
}

// CreateDiet assigns a new active diet plan, retiring the previous one.
func (s *PlanService) CreateDiet(ctx context.Context, actor policy.Actor, in DietInput) (model.DietPlan, error) {
	u, err := loadMember(ctx, s.Users, actor, in.MemberID, policy.Plan, policy.Create)
	if err != nil {
		return model.DietPlan{}, err
	}
	p := model.DietPlan{MemberID: u.ID, AuthorID: actor.ID}
	if err := in.apply(&p); err != nil {
		return model.DietPlan{}, err
	}
	if err := s.Plans.CreateDiet(ctx, &p); err != nil {
		return model.DietPlan{}, storeErr(err, "diet plan")
	}
	s.Notifier.Notify(ctx, u.ID, model.NotifyDiet, "New diet plan", p.Title, map[string]string{"plan_id": p.ID})
	return p, nil
}

func (s *PlanService) diet(ctx context.Context, actor policy.Actor, id string, act policy.Action) (model.DietPlan, error) {
	if err := policy.Gate(actor); err != nil {
		return model.DietPlan{}, err
	}
	p, err := s.Plans.GetDiet(ctx, id)
	if err != nil {
		return model.DietPlan{}, storeErr(err, "diet plan")
	}
	if _, err := loadMember(ctx, s.Users, actor, p.MemberID, policy.Plan, act); err != nil {
		return model.DietPlan{}, err
	}
	return p, nil
}

// UpdateDiet rewrites a diet plan.
func (s *PlanService) UpdateDiet(ctx context.Context, actor policy.Actor, id string, in DietInput) (model.DietPlan, error) {
	p, err := s.diet(ctx, actor, id, policy.Update)
	if err != nil {
		return model.DietPlan{}, err
	}
	if in.MemberID != "" && in.MemberID != p.MemberID {
		return model.DietPlan{}, apperr.Validation("member_id cannot be changed")
	}
	if err := in.apply(&p); err != nil {
		return model.DietPlan{}, err
	}
	if err := s.Plans.UpdateDiet(ctx, &p); err != nil {
		return model.DietPlan{}, storeErr(err, "diet plan")
	}
	s.Notifier.Notify(ctx, p.MemberID, model.NotifyDiet, "Diet plan updated", p.Title, map[string]string{"plan_id": p.ID})
	return p, nil
}

// DeleteDiet removes a diet plan.
func (s *PlanService) DeleteDiet(ctx context.Context, actor policy.Actor, id string) error {
	p, err := s.diet(ctx, actor, id, policy.Delete)
	if err != nil {
		return err
	}
	return storeErr(s.Plans.DeleteDiet(ctx, p.ID), "diet plan")
}
