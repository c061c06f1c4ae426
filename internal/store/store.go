// Package store persists the brainstorm engine's structured state in
// SQLite: projects, sandboxes, conversations, documents, tracked ideas,
// the append-only idea version log, immutable session records, and the
// project's permanent item list.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reconstitutechrist-rgb/brainstorm/internal/idea"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// Conversation session statuses.
const (
	ConversationActive        = "active"
	ConversationBrainstorming = "brainstorming"
	ConversationInReview      = "in_review"
	ConversationCompleted     = "completed"
)

// Sandbox statuses.
const (
	SandboxActive             = "active"
	SandboxSavedAsAlternative = "saved_as_alternative"
)

// Project is the root container everything else hangs off.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Sandbox is an exploration workspace inside a project. A finalized
// brainstorm marks its sandbox saved_as_alternative rather than
// deleting it.
type Sandbox struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Conversation is one brainstorm session bound to a sandbox. Its
// session status is the finalize idempotency gate: once completed, the
// completion timestamp and final decisions never change.
type Conversation struct {
	ID             string          `json:"id"`
	SandboxID      string          `json:"sandbox_id"`
	Title          string          `json:"title"`
	SessionStatus  string          `json:"session_status"`
	FinalDecisions json.RawMessage `json:"final_decisions,omitempty"`
	CompletedAt    *string         `json:"completed_at,omitempty"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

// Document is a generated project document. Version starts at 1 and is
// bumped on every regeneration.
type Document struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	DocType   string `json:"doc_type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".brainstorm")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent structured store backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store: it creates the data directory if needed, opens
// SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "brainstorm.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sandboxes (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name       TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'active',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		);

		CREATE TABLE IF NOT EXISTS conversations (
			id              TEXT PRIMARY KEY,
			sandbox_id      TEXT NOT NULL,
			title           TEXT NOT NULL,
			session_status  TEXT NOT NULL DEFAULT 'active',
			final_decisions TEXT,
			completed_at    TEXT,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL,
			FOREIGN KEY (sandbox_id) REFERENCES sandboxes(id)
		);

		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			doc_type   TEXT NOT NULL,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			version    INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		);

		CREATE TABLE IF NOT EXISTS ideas (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			payload         TEXT NOT NULL,
			status          TEXT NOT NULL,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);

		CREATE TABLE IF NOT EXISTS idea_versions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id          TEXT    NOT NULL,
			version_number   INTEGER NOT NULL,
			content          TEXT    NOT NULL,
			change_type      TEXT    NOT NULL,
			reasoning        TEXT,
			triggered_by     TEXT    NOT NULL,
			previous_version INTEGER NOT NULL,
			created_at       TEXT    NOT NULL,
			UNIQUE (item_id, version_number)
		);

		CREATE TABLE IF NOT EXISTS project_items (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			text       TEXT NOT NULL,
			state      TEXT NOT NULL,
			metadata   TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		);

		CREATE TABLE IF NOT EXISTS session_records (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			name            TEXT NOT NULL,
			accepted        TEXT NOT NULL,
			rejected        TEXT NOT NULL,
			unmarked        TEXT NOT NULL,
			generated_docs  TEXT NOT NULL,
			updated_docs    TEXT NOT NULL,
			created_at      TEXT NOT NULL,
			completed_at    TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sandboxes_project   ON sandboxes(project_id);
		CREATE INDEX IF NOT EXISTS idx_conv_sandbox        ON conversations(sandbox_id);
		CREATE INDEX IF NOT EXISTS idx_conv_status         ON conversations(session_status);
		CREATE INDEX IF NOT EXISTS idx_docs_project        ON documents(project_id, doc_type);
		CREATE INDEX IF NOT EXISTS idx_ideas_conv          ON ideas(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_versions_item       ON idea_versions(item_id, version_number);
		CREATE INDEX IF NOT EXISTS idx_items_project       ON project_items(project_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_records_conv        ON session_records(conversation_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Projects ────────────────────────────────────────────────────────────────

// CreateProject registers a new project.
func (s *Store) CreateProject(p Project) error {
	if p.CreatedAt == "" {
		p.CreatedAt = now()
	}
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (s *Store) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, COALESCE(description, ''), created_at FROM projects WHERE id = ?`, id,
	)
	var p Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return &p, nil
}

// ─── Sandboxes ───────────────────────────────────────────────────────────────

// CreateSandbox registers a new sandbox in a project.
func (s *Store) CreateSandbox(sb Sandbox) error {
	ts := now()
	if sb.Status == "" {
		sb.Status = SandboxActive
	}
	if sb.CreatedAt == "" {
		sb.CreatedAt = ts
	}
	if sb.UpdatedAt == "" {
		sb.UpdatedAt = ts
	}
	_, err := s.db.Exec(
		`INSERT INTO sandboxes (id, project_id, name, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sb.ID, sb.ProjectID, sb.Name, sb.Status, sb.CreatedAt, sb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create sandbox: %w", err)
	}
	return nil
}

// GetSandbox retrieves a sandbox by ID.
func (s *Store) GetSandbox(id string) (*Sandbox, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, name, status, created_at, updated_at FROM sandboxes WHERE id = ?`, id,
	)
	var sb Sandbox
	if err := row.Scan(&sb.ID, &sb.ProjectID, &sb.Name, &sb.Status, &sb.CreatedAt, &sb.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sandbox %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get sandbox: %w", err)
	}
	return &sb, nil
}

// UpdateSandboxStatus sets a sandbox's status and display name.
func (s *Store) UpdateSandboxStatus(id, status, name string) error {
	res, err := s.db.Exec(
		`UPDATE sandboxes SET status = ?, name = ?, updated_at = ? WHERE id = ?`,
		status, name, now(), id,
	)
	if err != nil {
		return fmt.Errorf("store: update sandbox: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sandbox %q: %w", id, ErrNotFound)
	}
	return nil
}

// ─── Conversations ───────────────────────────────────────────────────────────

// CreateConversation registers a new conversation in a sandbox.
func (s *Store) CreateConversation(c Conversation) error {
	ts := now()
	if c.SessionStatus == "" {
		c.SessionStatus = ConversationActive
	}
	if c.CreatedAt == "" {
		c.CreatedAt = ts
	}
	if c.UpdatedAt == "" {
		c.UpdatedAt = ts
	}
	_, err := s.db.Exec(
		`INSERT INTO conversations (id, sandbox_id, title, session_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.SandboxID, c.Title, c.SessionStatus, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by ID.
func (s *Store) GetConversation(id string) (*Conversation, error) {
	row := s.db.QueryRow(
		`SELECT id, sandbox_id, title, session_status, final_decisions, completed_at, created_at, updated_at
		 FROM conversations WHERE id = ?`, id,
	)
	var c Conversation
	var decisions sql.NullString
	if err := row.Scan(&c.ID, &c.SandboxID, &c.Title, &c.SessionStatus, &decisions, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get conversation: %w", err)
	}
	if decisions.Valid {
		c.FinalDecisions = json.RawMessage(decisions.String)
	}
	return &c, nil
}

// UpdateConversationStatus sets a conversation's session status. It
// never touches a completed conversation.
func (s *Store) UpdateConversationStatus(id, status string) error {
	res, err := s.db.Exec(
		`UPDATE conversations SET session_status = ?, updated_at = ?
		 WHERE id = ? AND session_status != ?`,
		status, now(), id, ConversationCompleted,
	)
	if err != nil {
		return fmt.Errorf("store: update conversation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %q (active): %w", id, ErrNotFound)
	}
	return nil
}

// CompleteConversation marks a conversation completed and stores the
// final decision snapshot. The conditional update is the finalize
// idempotency gate: it reports false when the conversation was already
// completed, and the original completion timestamp and decisions are
// never overwritten.
func (s *Store) CompleteConversation(id string, finalDecisions []byte) (bool, error) {
	ts := now()
	res, err := s.db.Exec(
		`UPDATE conversations
		 SET session_status = ?, final_decisions = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND session_status != ?`,
		ConversationCompleted, string(finalDecisions), ts, ts, id, ConversationCompleted,
	)
	if err != nil {
		return false, fmt.Errorf("store: complete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: complete conversation: %w", err)
	}
	return n > 0, nil
}

// ─── Documents ───────────────────────────────────────────────────────────────

// CreateDocument stores a new document at version 1.
func (s *Store) CreateDocument(d Document) error {
	ts := now()
	if d.Version <= 0 {
		d.Version = 1
	}
	if d.CreatedAt == "" {
		d.CreatedAt = ts
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = ts
	}
	_, err := s.db.Exec(
		`INSERT INTO documents (id, project_id, doc_type, title, content, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.DocType, d.Title, d.Content, d.Version, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create document: %w", err)
	}
	return nil
}

// UpdateDocument replaces a document's content and bumps its version.
// Returns the new version number.
func (s *Store) UpdateDocument(id, title, content string) (int, error) {
	res, err := s.db.Exec(
		`UPDATE documents SET title = ?, content = ?, version = version + 1, updated_at = ? WHERE id = ?`,
		title, content, now(), id,
	)
	if err != nil {
		return 0, fmt.Errorf("store: update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	var version int
	if err := s.db.QueryRow(`SELECT version FROM documents WHERE id = ?`, id).Scan(&version); err != nil {
		return 0, fmt.Errorf("store: update document: %w", err)
	}
	return version, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(id string) (*Document, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, doc_type, title, content, version, created_at, updated_at
		 FROM documents WHERE id = ?`, id,
	)
	var d Document
	if err := row.Scan(&d.ID, &d.ProjectID, &d.DocType, &d.Title, &d.Content, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a project's documents, optionally filtered by
// type, newest first.
func (s *Store) ListDocuments(projectID, docType string) ([]Document, error) {
	query := `SELECT id, project_id, doc_type, title, content, version, created_at, updated_at
	          FROM documents WHERE project_id = ?`
	args := []any{projectID}
	if docType != "" {
		query += ` AND doc_type = ?`
		args = append(args, docType)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.DocType, &d.Title, &d.Content, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: list documents: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ─── Ideas ───────────────────────────────────────────────────────────────────

// PutIdea inserts or replaces a tracked idea's full payload.
func (s *Store) PutIdea(conversationID string, i *idea.ExtractedIdea) error {
	payload, err := json.Marshal(i)
	if err != nil {
		return fmt.Errorf("store: marshal idea: %w", err)
	}
	ts := now()
	_, err = s.db.Exec(
		`INSERT INTO ideas (id, conversation_id, payload, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, status = excluded.status, updated_at = excluded.updated_at`,
		i.ID, conversationID, string(payload), string(i.Status), ts, ts,
	)
	if err != nil {
		return fmt.Errorf("store: put idea: %w", err)
	}
	return nil
}

// GetIdea retrieves a tracked idea by ID.
func (s *Store) GetIdea(id string) (*idea.ExtractedIdea, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM ideas WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("idea %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get idea: %w", err)
	}
	var i idea.ExtractedIdea
	if err := json.Unmarshal([]byte(payload), &i); err != nil {
		return nil, fmt.Errorf("store: unmarshal idea %q: %w", id, err)
	}
	return &i, nil
}

// ListIdeas returns a conversation's tracked ideas in insertion order.
func (s *Store) ListIdeas(conversationID string) ([]*idea.ExtractedIdea, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM ideas WHERE conversation_id = ? ORDER BY created_at, id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list ideas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ideas []*idea.ExtractedIdea
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("store: list ideas: %w", err)
		}
		var i idea.ExtractedIdea
		if err := json.Unmarshal([]byte(payload), &i); err != nil {
			return nil, fmt.Errorf("store: unmarshal idea: %w", err)
		}
		ideas = append(ideas, &i)
	}
	return ideas, rows.Err()
}

// ─── Idea versions ───────────────────────────────────────────────────────────

// AppendVersionRecord appends one entry to an idea's version log. The
// log is insert-only; reusing a version number for the same item fails
// on the unique constraint.
func (s *Store) AppendVersionRecord(rec idea.VersionRecord) error {
	content, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("store: marshal version content: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO idea_versions (item_id, version_number, content, change_type, reasoning, triggered_by, previous_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ItemID, rec.VersionNumber, string(content), rec.ChangeType,
		rec.Reasoning, string(rec.TriggeredBy), rec.PreviousVersion, now(),
	)
	if err != nil {
		return fmt.Errorf("store: append version %d for item %q: %w", rec.VersionNumber, rec.ItemID, err)
	}
	return nil
}

// ListVersionRecords returns an item's version log in version order.
func (s *Store) ListVersionRecords(itemID string) ([]idea.VersionRecord, error) {
	rows, err := s.db.Query(
		`SELECT item_id, version_number, content, change_type, COALESCE(reasoning, ''), triggered_by, previous_version
		 FROM idea_versions WHERE item_id = ? ORDER BY version_number`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []idea.VersionRecord
	for rows.Next() {
		var rec idea.VersionRecord
		var content, triggeredBy string
		if err := rows.Scan(&rec.ItemID, &rec.VersionNumber, &content, &rec.ChangeType, &rec.Reasoning, &triggeredBy, &rec.PreviousVersion); err != nil {
			return nil, fmt.Errorf("store: list versions: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &rec.Content); err != nil {
			return nil, fmt.Errorf("store: unmarshal version content: %w", err)
		}
		rec.TriggeredBy = idea.ChangedBy(triggeredBy)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ─── Project items ───────────────────────────────────────────────────────────

// AppendProjectItem appends one entry to the project's permanent item
// list. Items are insert-only and never rewritten.
func (s *Store) AppendProjectItem(item idea.ProjectItem) error {
	meta, err := json.Marshal(item.Meta)
	if err != nil {
		return fmt.Errorf("store: marshal item metadata: %w", err)
	}
	if item.CreatedAt == "" {
		item.CreatedAt = now()
	}
	_, err = s.db.Exec(
		`INSERT INTO project_items (id, project_id, text, state, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.ProjectID, item.Text, string(item.State), string(meta), item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: append project item: %w", err)
	}
	return nil
}

// ListAllProjectItems returns every project item across projects in
// insertion order. Used by the read-only resource endpoints.
func (s *Store) ListAllProjectItems() ([]idea.ProjectItem, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, text, state, metadata, created_at
		 FROM project_items ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list project items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanProjectItems(rows)
}

// ListProjectItems returns a project's items in insertion order.
func (s *Store) ListProjectItems(projectID string) ([]idea.ProjectItem, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, text, state, metadata, created_at
		 FROM project_items WHERE project_id = ? ORDER BY created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list project items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanProjectItems(rows)
}

func scanProjectItems(rows *sql.Rows) ([]idea.ProjectItem, error) {
	var items []idea.ProjectItem
	for rows.Next() {
		var item idea.ProjectItem
		var state, meta string
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Text, &state, &meta, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list project items: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &item.Meta); err != nil {
			return nil, fmt.Errorf("store: unmarshal item metadata: %w", err)
		}
		item.State = idea.DecisionState(state)
		items = append(items, item)
	}
	return items, rows.Err()
}

// ─── Session records ─────────────────────────────────────────────────────────

// CreateSessionRecord stores one immutable session record.
func (s *Store) CreateSessionRecord(rec idea.SessionRecord) error {
	accepted, err := json.Marshal(rec.AcceptedIdeas)
	if err != nil {
		return fmt.Errorf("store: marshal session record: %w", err)
	}
	rejected, err := json.Marshal(rec.RejectedIdeas)
	if err != nil {
		return fmt.Errorf("store: marshal session record: %w", err)
	}
	unmarked, err := json.Marshal(rec.UnmarkedIdeas)
	if err != nil {
		return fmt.Errorf("store: marshal session record: %w", err)
	}
	generated, err := json.Marshal(rec.GeneratedDocumentIDs)
	if err != nil {
		return fmt.Errorf("store: marshal session record: %w", err)
	}
	updated, err := json.Marshal(rec.UpdatedDocumentIDs)
	if err != nil {
		return fmt.Errorf("store: marshal session record: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO session_records (id, conversation_id, name, accepted, rejected, unmarked, generated_docs, updated_docs, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConversationID, rec.Name,
		string(accepted), string(rejected), string(unmarked),
		string(generated), string(updated),
		rec.CreatedAt, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create session record: %w", err)
	}
	return nil
}

// GetSessionRecord retrieves a session record by ID.
func (s *Store) GetSessionRecord(id string) (*idea.SessionRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, conversation_id, name, accepted, rejected, unmarked, generated_docs, updated_docs, created_at, completed_at
		 FROM session_records WHERE id = ?`, id,
	)
	rec, err := scanSessionRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session record %q: %w", id, ErrNotFound)
	}
	return rec, err
}

// ListSessionRecords returns a conversation's session records, newest
// first.
func (s *Store) ListSessionRecords(conversationID string) ([]idea.SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, conversation_id, name, accepted, rejected, unmarked, generated_docs, updated_docs, created_at, completed_at
		 FROM session_records WHERE conversation_id = ? ORDER BY completed_at DESC, id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list session records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []idea.SessionRecord
	for rows.Next() {
		rec, err := scanSessionRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListAllSessionRecords returns every session record across
// conversations, newest first. Used by the read-only resource
// endpoints.
func (s *Store) ListAllSessionRecords() ([]idea.SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, conversation_id, name, accepted, rejected, unmarked, generated_docs, updated_docs, created_at, completed_at
		 FROM session_records ORDER BY completed_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list session records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []idea.SessionRecord
	for rows.Next() {
		rec, err := scanSessionRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowLike interface {
	Scan(dest ...any) error
}

func scanSessionRecord(row rowLike) (*idea.SessionRecord, error) {
	var rec idea.SessionRecord
	var accepted, rejected, unmarked, generated, updated string
	if err := row.Scan(&rec.ID, &rec.ConversationID, &rec.Name,
		&accepted, &rejected, &unmarked, &generated, &updated,
		&rec.CreatedAt, &rec.CompletedAt); err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw  string
		dest any
	}{
		{accepted, &rec.AcceptedIdeas},
		{rejected, &rec.RejectedIdeas},
		{unmarked, &rec.UnmarkedIdeas},
		{generated, &rec.GeneratedDocumentIDs},
		{updated, &rec.UpdatedDocumentIDs},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return nil, fmt.Errorf("store: unmarshal session record %q: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// timeNow is a package-level var to allow test freezing.
var timeNow = time.Now

func now() string {
	return timeNow().UTC().Format(time.RFC3339)
}
