package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

func (s *Store) AddNutritionLog(ctx context.Context, l NutritionLog) error {
	items := l.Items
	if len(items) == 0 {
		items = []byte("{}")
	}
	_, err := s.exec(ctx, s.db, `INSERT INTO nutrition_logs (user_id, items, created_at) VALUES (?, ?, ?)`,
		l.UserID, jsonArg(items), s.timeArg(s.stamp(l.CreatedAt)))
	if err != nil {
		return fmt.Errorf("insert nutrition log: %w", err)
	}
	return nil
}

// NutritionLogs returns logs created at or after since, newest first.
// A zero since returns the latest limit logs.
func (s *Store) NutritionLogs(ctx context.Context, userID string, since time.Time, limit int) ([]NutritionLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, items, created_at
		FROM nutrition_logs
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), userID, s.timeArg(since), limit)
	if err != nil {
		return nil, fmt.Errorf("query nutrition logs: %w", err)
	}
	defer rows.Close()

	var out []NutritionLog
	for rows.Next() {
		var l NutritionLog
		if err := rows.Scan(&l.ID, &l.UserID, jsonColumn{&l.Items}, timeColumn{&l.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan nutrition log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) AddDailyTracking(ctx context.Context, d DailyTracking) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO daily_tracking (user_id, date, diet_consumed, workout_done, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.UserID, d.Date, jsonArg(d.DietConsumed), jsonArg(d.WorkoutDone), s.timeArg(s.stamp(d.CreatedAt)))
	if err != nil {
		return fmt.Errorf("insert daily tracking: %w", err)
	}
	return nil
}

// DailyTracking returns entries dated on or after sinceDate (YYYY-MM-DD),
// newest first. withWorkout restricts to days that recorded a workout.
func (s *Store) DailyTracking(ctx context.Context, userID, sinceDate string, withWorkout bool) ([]DailyTracking, error) {
	query := `SELECT id, user_id, date, diet_consumed, workout_done, created_at
		FROM daily_tracking
		WHERE user_id = ? AND date >= ?`
	if withWorkout {
		query += ` AND workout_done IS NOT NULL`
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), userID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("query daily tracking: %w", err)
	}
	defer rows.Close()

	var out []DailyTracking
	for rows.Next() {
		var d DailyTracking
		if err := rows.Scan(&d.ID, &d.UserID, dateColumn{&d.Date}, jsonColumn{&d.DietConsumed}, jsonColumn{&d.WorkoutDone}, timeColumn{&d.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan daily tracking: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) AddFoodLog(ctx context.Context, f FoodLog) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO food_logs (user_id, meal_date, calories, protein, carbs, fats, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.UserID, f.MealDate, f.Calories, f.Protein, f.Carbs, f.Fats, s.timeArg(s.stamp(f.CreatedAt)))
	if err != nil {
		return fmt.Errorf("insert food log: %w", err)
	}
	return nil
}

func (s *Store) FoodLogs(ctx context.Context, userID, sinceDate string) ([]FoodLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, meal_date, calories, protein, carbs, fats, created_at
		FROM food_logs
		WHERE user_id = ? AND meal_date >= ?
		ORDER BY meal_date DESC, id DESC`), userID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("query food logs: %w", err)
	}
	defer rows.Close()

	var out []FoodLog
	for rows.Next() {
		var f FoodLog
		if err := rows.Scan(&f.ID, &f.UserID, dateColumn{&f.MealDate}, &f.Calories, &f.Protein, &f.Carbs, &f.Fats, timeColumn{&f.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan food log: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) AddWorkoutProgress(ctx context.Context, w WorkoutProgress) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO workout_progress (user_id, workout_type, progress_data, completed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		w.UserID, w.WorkoutType, jsonArg(w.ProgressData), w.Completed, s.timeArg(s.stamp(w.CreatedAt)))
	if err != nil {
		return fmt.Errorf("insert workout progress: %w", err)
	}
	return nil
}

func (s *Store) WorkoutProgress(ctx context.Context, userID string, since time.Time) ([]WorkoutProgress, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, COALESCE(workout_type, ''), progress_data, completed, created_at
		FROM workout_progress
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC`), userID, s.timeArg(since))
	if err != nil {
		return nil, fmt.Errorf("query workout progress: %w", err)
	}
	defer rows.Close()

	var out []WorkoutProgress
	for rows.Next() {
		var w WorkoutProgress
		if err := rows.Scan(&w.ID, &w.UserID, &w.WorkoutType, jsonColumn{&w.ProgressData}, &w.Completed, timeColumn{&w.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan workout progress: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// AddMentalHealthLogs appends all logs in one transaction.
func (s *Store) AddMentalHealthLogs(ctx context.Context, logs ...MentalHealthLog) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range logs {
			created := l.CreatedAt
			if created.IsZero() {
				created = now
			}
			_, err := s.exec(ctx, tx, `INSERT INTO mental_health_logs
				(user_id, log_date, score, category, notes, routine_data, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				l.UserID, l.LogDate, l.Score, l.Category, l.Notes, jsonArg(l.RoutineData), s.timeArg(created))
			if err != nil {
				return fmt.Errorf("insert mental health log: %w", err)
			}
		}
		return nil
	})
}

// RecentMentalHealthLogs returns the latest logs, newest first.
func (s *Store) RecentMentalHealthLogs(ctx context.Context, userID string, limit int) ([]MentalHealthLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, log_date, score, COALESCE(category, ''), COALESCE(notes, ''), routine_data, created_at
		FROM mental_health_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query mental health logs: %w", err)
	}
	defer rows.Close()

	var out []MentalHealthLog
	for rows.Next() {
		var l MentalHealthLog
		if err := rows.Scan(&l.ID, &l.UserID, dateColumn{&l.LogDate}, &l.Score, &l.Category, &l.Notes, jsonColumn{&l.RoutineData}, timeColumn{&l.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan mental health log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
