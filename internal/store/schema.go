package store

const schemaV1 = `
CREATE TABLE IF NOT EXISTS profiles (
    id                   TEXT PRIMARY KEY,
    email                TEXT NOT NULL DEFAULT '',
    full_name            TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    created_by           TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_users (
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    user_id              TEXT NOT NULL,
    rate_per_hour        TEXT NOT NULL,
    monthly_hours_budget TEXT NOT NULL DEFAULT '0',
    created_at           TEXT NOT NULL,
    PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS project_budgets (
    id                   TEXT PRIMARY KEY,
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    month_date           TEXT NOT NULL,
    budget_amount        TEXT NOT NULL,
    created_at           TEXT NOT NULL,
    UNIQUE (project_id, month_date)
);

CREATE TABLE IF NOT EXISTS monthly_allocations (
    id                   TEXT PRIMARY KEY,
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    user_id              TEXT NOT NULL,
    month_date           TEXT NOT NULL,
    allocated_hours      TEXT NOT NULL,
    created_at           TEXT NOT NULL,
    UNIQUE (project_id, user_id, month_date)
);

CREATE TABLE IF NOT EXISTS daily_logs (
    id                   TEXT PRIMARY KEY,
    project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    user_id              TEXT NOT NULL,
    date                 TEXT NOT NULL,
    hours_spent          TEXT NOT NULL,
    work_description     TEXT NOT NULL DEFAULT '[]',
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS work_schedules (
    month_date           TEXT PRIMARY KEY,
    working_days         INTEGER NOT NULL CHECK (working_days >= 0),
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS holidays (
    date                 TEXT PRIMARY KEY,
    name                 TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_logs_project_date ON daily_logs(project_id, date);
CREATE INDEX IF NOT EXISTS idx_allocations_project_month ON monthly_allocations(project_id, month_date);
`
