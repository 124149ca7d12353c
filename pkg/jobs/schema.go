package jobs

// schemaVersion is the current job registry schema version.
const schemaVersion = 1

// schema contains the SQL statements creating the job registry tables.
const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    process_id TEXT NOT NULL,
    status TEXT NOT NULL,
    products TEXT NOT NULL,
    email TEXT,
    links TEXT,
    failures TEXT,
    message TEXT,
    created TIMESTAMP NOT NULL,
    started TIMESTAMP,
    finished TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created DESC);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const (
	insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`
)
