package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
)

// PlanRepo stores workout plans, diet plans and body metrics. The structured
// entries of a plan live in a JSON column.
type PlanRepo struct{ DB *sql.DB }

func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{DB: db} }

const workoutColumns = "id, member_id, author_id, title, description, exercises, is_active, created_at, updated_at"

func scanWorkout(s rowScanner) (model.WorkoutPlan, error) {
	var (
		p    model.WorkoutPlan
		desc sql.NullString
		raw  []byte
	)
	if err := s.Scan(&p.ID, &p.MemberID, &p.AuthorID, &p.Title, &desc, &raw, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.WorkoutPlan{}, err
	}
	p.Description = desc.String
	if err := json.Unmarshal(raw, &p.Exercises); err != nil {
		return model.WorkoutPlan{}, err
	}
	return p, nil
}

// CreateWorkout inserts a plan. Any earlier active plan of the member is
// deactivated so there is at most one active workout per member.
func (r *PlanRepo) CreateWorkout(ctx context.Context, p *model.WorkoutPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Exercises == nil {
		p.Exercises = []model.Exercise{}
	}
	raw, err := json.Marshal(p.Exercises)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt, p.IsActive = now, now, true
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE workout_plans SET is_active=0, updated_at=? WHERE member_id=? AND is_active=1", now, p.MemberID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO workout_plans ("+workoutColumns+") VALUES (?,?,?,?,?,?,1,?,?)",
			p.ID, p.MemberID, p.AuthorID, p.Title, nullString(p.Description), raw, now, now)
		return err
	})
}

// GetWorkout returns one plan.
func (r *PlanRepo) GetWorkout(ctx context.Context, id string) (model.WorkoutPlan, error) {
	p, err := scanWorkout(r.DB.QueryRowContext(ctx, "SELECT "+workoutColumns+" FROM workout_plans WHERE id=? LIMIT 1", id))
	return p, notFound(err)
}

// ListWorkouts returns a member's plans, active first then newest first.
func (r *PlanRepo) ListWorkouts(ctx context.Context, memberID string) ([]model.WorkoutPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+workoutColumns+" FROM workout_plans WHERE member_id=? ORDER BY is_active DESC, created_at DESC", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WorkoutPlan
	for rows.Next() {
		p, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ActiveWorkout returns the member's active plan.
func (r *PlanRepo) ActiveWorkout(ctx context.Context, memberID string) (model.WorkoutPlan, error) {
	p, err := scanWorkout(r.DB.QueryRowContext(ctx,
		"SELECT "+workoutColumns+" FROM workout_plans WHERE member_id=? AND is_active=1 ORDER BY created_at DESC LIMIT 1", memberID))
	return p, notFound(err)
}

// UpdateWorkout rewrites title, description and exercises.
func (r *PlanRepo) UpdateWorkout(ctx context.Context, p *model.WorkoutPlan) error {
	raw, err := json.Marshal(p.Exercises)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE workout_plans SET title=?, description=?, exercises=?, updated_at=? WHERE id=?",
		p.Title, nullString(p.Description), raw, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteWorkout removes a plan.
func (r *PlanRepo) DeleteWorkout(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM workout_plans WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CompleteExercise flags one exercise of a plan as done. The plan row is
// locked so concurrent completions of different exercises do not overwrite
// each other.
func (r *PlanRepo) CompleteExercise(ctx context.Context, planID string, index int, at time.Time) (model.WorkoutPlan, error) {
	var plan model.WorkoutPlan
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		p, err := scanWorkout(tx.QueryRowContext(ctx,
			"SELECT "+workoutColumns+" FROM workout_plans WHERE id=? FOR UPDATE", planID))
		if err != nil {
			return notFound(err)
		}
		if index < 0 || index >= len(p.Exercises) {
			return ErrNotFound
		}
		p.Exercises[index].Completed = true
		p.Exercises[index].CompletedAt = &at
		raw, err := json.Marshal(p.Exercises)
		if err != nil {
			return err
		}
		p.UpdatedAt = at
		if _, err := tx.ExecContext(ctx,
			"UPDATE workout_plans SET exercises=?, updated_at=? WHERE id=?", raw, at, planID); err != nil {
			return err
		}
		plan = p
		return nil
	})
	return plan, err
}

const dietColumns = "id, member_id, author_id, title, meals, daily_calories, notes, is_active, created_at, updated_at"

func scanDiet(s rowScanner) (model.DietPlan, error) {
	var (
		p        model.DietPlan
		raw      []byte
		calories sql.NullInt64
		notes    sql.NullString
	)
	if err := s.Scan(&p.ID, &p.MemberID, &p.AuthorID, &p.Title, &raw, &calories, &notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.DietPlan{}, err
	}
	p.DailyCalories = int(calories.Int64)
	p.Notes = notes.String
	if err := json.Unmarshal(raw, &p.Meals); err != nil {
		return model.DietPlan{}, err
	}
	return p, nil
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// CreateDiet inserts a diet plan, deactivating the member's previous one.
func (r *PlanRepo) CreateDiet(ctx context.Context, p *model.DietPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Meals == nil {
		p.Meals = []model.Meal{}
	}
	raw, err := json.Marshal(p.Meals)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt, p.IsActive = now, now, true
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE diet_plans SET is_active=0, updated_at=? WHERE member_id=? AND is_active=1", now, p.MemberID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO diet_plans ("+dietColumns+") VALUES (?,?,?,?,?,?,?,1,?,?)",
			p.ID, p.MemberID, p.AuthorID, p.Title, raw, nullInt(p.DailyCalories), nullString(p.Notes), now, now)
		return err
	})
}

func (r *PlanRepo) GetDiet(ctx context.Context, id string) (model.DietPlan, error) {
	p, err := scanDiet(r.DB.QueryRowContext(ctx, "SELECT "+dietColumns+" FROM diet_plans WHERE id=? LIMIT 1", id))
	return p, notFound(err)
}

func (r *PlanRepo) ListDiets(ctx context.Context, memberID string) ([]model.DietPlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+dietColumns+" FROM diet_plans WHERE member_id=? ORDER BY is_active DESC, created_at DESC", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DietPlan
	for rows.Next() {
		p, err := scanDiet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PlanRepo) UpdateDiet(ctx context.Context, p *model.DietPlan) error {
	raw, err := json.Marshal(p.Meals)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE diet_plans SET title=?, meals=?, daily_calories=?, notes=?, updated_at=? WHERE id=?",
		p.Title, raw, nullInt(p.DailyCalories), nullString(p.Notes), p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PlanRepo) DeleteDiet(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM diet_plans WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

const metricsColumns = "id, member_id, recorded_by, weight, height, body_fat, chest, waist, hips, biceps, thighs, notes, recorded_at"

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func scanMetrics(s rowScanner) (model.BodyMetrics, error) {
	var (
		m                                                       model.BodyMetrics
		weight, height, fat, chest, waist, hips, biceps, thighs sql.NullFloat64
		notes                                                   sql.NullString
	)
	if err := s.Scan(&m.ID, &m.MemberID, &m.RecordedBy, &weight, &height, &fat, &chest, &waist, &hips, &biceps, &thighs,
		&notes, &m.RecordedAt); err != nil {
		return model.BodyMetrics{}, err
	}
	m.Weight, m.Height, m.BodyFat = floatPtr(weight), floatPtr(height), floatPtr(fat)
	m.Chest, m.Waist, m.Hips = floatPtr(chest), floatPtr(waist), floatPtr(hips)
	m.Biceps, m.Thighs = floatPtr(biceps), floatPtr(thighs)
	m.Notes = notes.String
	return m, nil
}

// AddMetrics records one measurement snapshot.
func (r *PlanRepo) AddMetrics(ctx context.Context, m *model.BodyMetrics) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO body_metrics ("+metricsColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)",
		m.ID, m.MemberID, m.RecordedBy, nullFloat(m.Weight), nullFloat(m.Height), nullFloat(m.BodyFat),
		nullFloat(m.Chest), nullFloat(m.Waist), nullFloat(m.Hips), nullFloat(m.Biceps), nullFloat(m.Thighs),
		nullString(m.Notes), m.RecordedAt)
	return err
}

func (r *PlanRepo) GetMetrics(ctx context.Context, id string) (model.BodyMetrics, error) {
	m, err := scanMetrics(r.DB.QueryRowContext(ctx, "SELECT "+metricsColumns+" FROM body_metrics WHERE id=? LIMIT 1", id))
	return m, notFound(err)
}

// ListMetrics returns a member's history, newest first.
func (r *PlanRepo) ListMetrics(ctx context.Context, memberID string, limit int) ([]model.BodyMetrics, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+metricsColumns+" FROM body_metrics WHERE member_id=? ORDER BY recorded_at DESC LIMIT ?", memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BodyMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMetrics rewrites the measurements of one snapshot.
func (r *PlanRepo) UpdateMetrics(ctx context.Context, m *model.BodyMetrics) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE body_metrics SET weight=?, height=?, body_fat=?, chest=?, waist=?, hips=?, biceps=?, thighs=?, notes=?
		WHERE id=?`,
		nullFloat(m.Weight), nullFloat(m.Height), nullFloat(m.BodyFat), nullFloat(m.Chest), nullFloat(m.Waist),
		nullFloat(m.Hips), nullFloat(m.Biceps), nullFloat(m.Thighs), nullString(m.Notes), m.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PlanRepo) DeleteMetrics(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM body_metrics WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
