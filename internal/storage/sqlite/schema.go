package sqlite

const schema = `
-- Work items table
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL CHECK(length(name) <= 500),
    description TEXT NOT NULL DEFAULT '',
    complexity TEXT NOT NULL DEFAULT 'medium' CHECK(complexity IN ('easy', 'medium', 'hard')),
    priority INTEGER NOT NULL DEFAULT 3 CHECK(priority >= 1 AND priority <= 5),
    status TEXT NOT NULL DEFAULT 'defined',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_priority ON items(priority);

-- Per-category counters for atomic id allocation
CREATE TABLE IF NOT EXISTS item_counters (
    category TEXT PRIMARY KEY,
    last_id INTEGER NOT NULL DEFAULT 0
);

-- Dependency edges: item_id depends on depends_on_id
CREATE TABLE IF NOT EXISTS dependencies (
    item_id TEXT NOT NULL,
    depends_on_id TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_by TEXT NOT NULL,
    PRIMARY KEY (item_id, depends_on_id),
    CHECK (item_id != depends_on_id),
    FOREIGN KEY (item_id) REFERENCES items(id),
    FOREIGN KEY (depends_on_id) REFERENCES items(id)
);

CREATE INDEX IF NOT EXISTS idx_dependencies_item ON dependencies(item_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_depends_on ON dependencies(depends_on_id);

-- Backlog table
CREATE TABLE IF NOT EXISTS backlog (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK(type IN ('BUG', 'IDEA', 'IMP', 'DEBT', 'Q')),
    title TEXT NOT NULL CHECK(length(title) <= 500),
    priority INTEGER NOT NULL DEFAULT 3 CHECK(priority >= 1 AND priority <= 5),
    related TEXT NOT NULL DEFAULT '[]',
    notes TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'fixed', 'promoted', 'dismissed', 'duplicate')),
    duplicate_of TEXT,
    promoted_to TEXT,
    resolution TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    resolved_at DATETIME,
    FOREIGN KEY (duplicate_of) REFERENCES backlog(id)
);

CREATE INDEX IF NOT EXISTS idx_backlog_status ON backlog(status);
CREATE INDEX IF NOT EXISTS idx_backlog_type ON backlog(type);

-- Per-type counters for backlog id allocation
CREATE TABLE IF NOT EXISTS backlog_counters (
    type TEXT PRIMARY KEY,
    last_id INTEGER NOT NULL DEFAULT 0
);

-- Events table (audit trail)
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    actor TEXT NOT NULL,
    old_value TEXT,
    new_value TEXT,
    comment TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_item ON events(item_id);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);

-- Key/value config table
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
