package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PlanSection names a replaceable column of the per-user fitness plan row.
type PlanSection string

const (
	WorkoutSection PlanSection = "workout_plan"
	DietSection    PlanSection = "diet_plan"
)

func (p PlanSection) valid() bool {
	return p == WorkoutSection || p == DietSection
}

// ReplacePlanSection stores data as the user's workout or diet plan,
// replacing any previous value. Each user has at most one plan row.
// created reports whether this call inserted that row; of two concurrent
// first writes exactly one sees created.
func (s *Store) ReplacePlanSection(ctx context.Context, userID, name string, section PlanSection, data json.RawMessage) (created bool, err error) {
	if !section.valid() {
		return false, fmt.Errorf("unknown plan section %q", section)
	}
	now := s.timeArg(s.now())
	col := string(section)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, `INSERT INTO fitness_plans (user_id, name, `+col+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO NOTHING`,
			userID, name, jsonArg(data), now, now)
		if err != nil {
			return fmt.Errorf("insert fitness plan: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert fitness plan: %w", err)
		}
		if n == 1 {
			created = true
			return nil
		}

		_, err = s.exec(ctx, tx, `UPDATE fitness_plans
			SET name = ?, `+col+` = ?, updated_at = ?
			WHERE user_id = ?`,
			name, jsonArg(data), now, userID)
		if err != nil {
			return fmt.Errorf("update fitness plan: %w", err)
		}
		return nil
	})
	return created, err
}

// FitnessPlans lists every plan row for a user. There is at most one.
func (s *Store) FitnessPlans(ctx context.Context, userID string) ([]FitnessPlan, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, name, workout_plan, diet_plan, created_at, updated_at
		FROM fitness_plans
		WHERE user_id = ?
		ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("query fitness plans: %w", err)
	}
	defer rows.Close()

	var out []FitnessPlan
	for rows.Next() {
		var p FitnessPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, jsonColumn{&p.WorkoutPlan}, jsonColumn{&p.DietPlan}, timeColumn{&p.CreatedAt}, timeColumn{&p.UpdatedAt}); err != nil {
			return nil, fmt.Errorf("scan fitness plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FitnessPlan(ctx context.Context, userID string) (FitnessPlan, error) {
	plans, err := s.FitnessPlans(ctx, userID)
	if err != nil {
		return FitnessPlan{}, err
	}
	if len(plans) == 0 {
		return FitnessPlan{}, ErrNotFound
	}
	return plans[0], nil
}

// AddMedicine inserts a medicine as given.
func (s *Store) AddMedicine(ctx context.Context, m Medicine) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertMedicine(ctx, tx, m)
		return err
	})
	return id, err
}

func (s *Store) insertMedicine(ctx context.Context, tx *sql.Tx, m Medicine) (int64, error) {
	now := s.now()
	created := m.CreatedAt
	if created.IsZero() {
		created = now
	}
	times := m.ReminderTimes
	if times == nil {
		times = []string{}
	}
	var id int64
	err := tx.QueryRowContext(ctx, s.rebind(`INSERT INTO medicines
		(user_id, medicine_name, dosage, frequency, side_effects, purpose, reminder_times,
		 reminder_enabled, notes, active, ai_generated, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		m.UserID, m.Name, m.Dosage, m.Frequency, m.SideEffects, m.Purpose, mustJSON(times),
		m.ReminderEnabled, m.Notes, m.Active, m.AIGenerated, s.timeArg(created), s.timeArg(now)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert medicine: %w", err)
	}
	return id, nil
}

// UpsertMedicineReminder enables reminders on the user's medicine with the
// same name (case-insensitive), or inserts m when there is none.
// created reports which path was taken.
func (s *Store) UpsertMedicineReminder(ctx context.Context, m Medicine) (created bool, err error) {
	times := m.ReminderTimes
	if times == nil {
		times = []string{}
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, `UPDATE medicines
			SET reminder_times = ?, reminder_enabled = ?, notes = ?, updated_at = ?
			WHERE user_id = ? AND LOWER(medicine_name) = LOWER(?)`,
			mustJSON(times), true, m.Notes, s.timeArg(s.now()), m.UserID, m.Name)
		if err != nil {
			return fmt.Errorf("update medicine reminder: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n > 0 {
			return nil
		}
		created = true
		m.ReminderTimes = times
		m.ReminderEnabled = true
		_, err = s.insertMedicine(ctx, tx, m)
		return err
	})
	return created, err
}

// Medicines lists a user's medicines, oldest first.
func (s *Store) Medicines(ctx context.Context, userID string, activeOnly bool) ([]Medicine, error) {
	query := `SELECT id, user_id, medicine_name, COALESCE(dosage, ''), COALESCE(frequency, ''),
			COALESCE(side_effects, ''), COALESCE(purpose, ''), reminder_times, reminder_enabled,
			COALESCE(notes, ''), active, ai_generated, created_at, updated_at
		FROM medicines
		WHERE user_id = ?`
	args := []any{userID}
	if activeOnly {
		query += ` AND active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query medicines: %w", err)
	}
	defer rows.Close()

	var out []Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.SideEffects, &m.Purpose,
			stringsColumn{&m.ReminderTimes}, &m.ReminderEnabled, &m.Notes, &m.Active, &m.AIGenerated,
			timeColumn{&m.CreatedAt}, timeColumn{&m.UpdatedAt}); err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddGoals appends goals in one transaction.
func (s *Store) AddGoals(ctx context.Context, goals ...Goal) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, g := range goals {
			created := g.CreatedAt
			if created.IsZero() {
				created = now
			}
			milestones := g.Milestones
			if milestones == nil {
				milestones = []string{}
			}
			_, err := s.exec(ctx, tx, `INSERT INTO plans
				(user_id, plan_name, plan_type, target, timeline, milestones, status, progress, description, ai_generated, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				g.UserID, g.Name, g.Type, g.Target, g.Timeline, mustJSON(milestones), g.Status, g.Progress,
				g.Description, g.AIGenerated, s.timeArg(created))
			if err != nil {
				return fmt.Errorf("insert goal: %w", err)
			}
		}
		return nil
	})
}

// Goals lists plans rows of the given type for a user, oldest first.
func (s *Store) Goals(ctx context.Context, userID, planType string) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, plan_name, plan_type, COALESCE(target, ''),
			COALESCE(timeline, ''), milestones, status, progress, COALESCE(description, ''), ai_generated, created_at
		FROM plans
		WHERE user_id = ? AND plan_type = ?
		ORDER BY created_at, id`), userID, planType)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Type, &g.Target, &g.Timeline, stringsColumn{&g.Milestones},
			&g.Status, &g.Progress, &g.Description, &g.AIGenerated, timeColumn{&g.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
