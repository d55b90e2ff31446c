package store

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS agent_conversations (
		id BIGSERIAL PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'model')),
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS agent_conversations_conversation_idx
		ON agent_conversations (conversation_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS agent_reasoning_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		steps JSONB NOT NULL,
		total_iterations INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS medicines (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		medicine_name TEXT NOT NULL,
		dosage TEXT,
		frequency TEXT,
		side_effects TEXT,
		purpose TEXT,
		reminder_times JSONB NOT NULL DEFAULT '[]',
		reminder_enabled BOOLEAN NOT NULL DEFAULT false,
		notes TEXT,
		active BOOLEAN NOT NULL DEFAULT true,
		ai_generated BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS medicines_user_idx ON medicines (user_id)`,
	`CREATE TABLE IF NOT EXISTS nutrition_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		items JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS daily_tracking (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		date DATE NOT NULL,
		diet_consumed JSONB,
		workout_done JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS food_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		meal_date DATE NOT NULL,
		calories DOUBLE PRECISION NOT NULL DEFAULT 0,
		protein DOUBLE PRECISION NOT NULL DEFAULT 0,
		carbs DOUBLE PRECISION NOT NULL DEFAULT 0,
		fats DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS workout_progress (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		workout_type TEXT,
		progress_data JSONB,
		completed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS mental_health_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		log_date DATE NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		category TEXT,
		notes TEXT,
		routine_data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fitness_plans (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		workout_plan JSONB,
		diet_plan JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		plan_type TEXT NOT NULL,
		target TEXT,
		timeline TEXT,
		milestones JSONB NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		ai_generated BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// SQLite keeps timestamps as fixed-width UTC text so range predicates
// compare lexically.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS agent_conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'model')),
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS agent_conversations_conversation_idx
		ON agent_conversations (conversation_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS agent_reasoning_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		steps TEXT NOT NULL,
		total_iterations INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS medicines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		medicine_name TEXT NOT NULL,
		dosage TEXT,
		frequency TEXT,
		side_effects TEXT,
		purpose TEXT,
		reminder_times TEXT NOT NULL DEFAULT '[]',
		reminder_enabled INTEGER NOT NULL DEFAULT 0,
		notes TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		ai_generated INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medicines_user_idx ON medicines (user_id)`,
	`CREATE TABLE IF NOT EXISTS nutrition_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		items TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS daily_tracking (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		diet_consumed TEXT,
		workout_done TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS food_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		meal_date TEXT NOT NULL,
		calories REAL NOT NULL DEFAULT 0,
		protein REAL NOT NULL DEFAULT 0,
		carbs REAL NOT NULL DEFAULT 0,
		fats REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workout_progress (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		workout_type TEXT,
		progress_data TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mental_health_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		log_date TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		category TEXT,
		notes TEXT,
		routine_data TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fitness_plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		workout_plan TEXT,
		diet_plan TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		plan_type TEXT NOT NULL,
		target TEXT,
		timeline TEXT,
		milestones TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		ai_generated INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
}
