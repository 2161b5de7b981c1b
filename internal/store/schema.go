package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    identity TEXT NOT NULL,
    since TEXT NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    line_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_identity ON runs(identity);
CREATE INDEX IF NOT EXISTS idx_runs_completed ON runs(completed_at);
`
