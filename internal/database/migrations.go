package database

// Migration represents a database migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: "001_init",
		Up: `
-- Server instances managed by this panel
CREATE TABLE instances (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    java_path TEXT,
    jvm_args TEXT,
    server_args TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_instances_path ON instances(path);

-- Panel settings (admin credential, onboarding flags, dismissed banners)
CREATE TABLE settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`,
		Down: `DROP TABLE instances; DROP TABLE settings;`,
	},
	{
		Version: "002_instance_auth",
		Up: `
ALTER TABLE instances ADD COLUMN auth_status TEXT DEFAULT 'unknown';
ALTER TABLE instances ADD COLUMN auth_persistence TEXT DEFAULT 'memory';
ALTER TABLE instances ADD COLUMN auth_profile_name TEXT;
`,
		Down: ``,
	},
	{
		Version: "003_instance_version",
		Up: `
ALTER TABLE instances ADD COLUMN installed_version TEXT;
`,
		Down: ``,
	},
	{
		Version: "004_instance_metrics",
		Up: `
CREATE TABLE instance_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    instance_id TEXT NOT NULL,
    pid INTEGER,
    cpu_percent REAL,
    memory_mb REAL,
    memory_percent REAL,
    uptime_seconds INTEGER,
    collected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (instance_id) REFERENCES instances(id) ON DELETE CASCADE
);

CREATE INDEX idx_instance_metrics_instance ON instance_metrics(instance_id, collected_at);
`,
		Down: `DROP TABLE instance_metrics;`,
	},
}
