package sqlite

// Schema DDL for all tables. Timestamps are RFC 3339 strings in UTC.
const (
	createFiles = `CREATE TABLE IF NOT EXISTS files (
    file_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    folder_id TEXT,
    filename TEXT NOT NULL CHECK (filename <> ''),
    description TEXT NOT NULL DEFAULT '',
    is_private INTEGER NOT NULL DEFAULT 0,
    is_visible INTEGER NOT NULL DEFAULT 1,
    comments_enabled INTEGER NOT NULL DEFAULT 1,
    expiration_time TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createRevisions = `CREATE TABLE IF NOT EXISTS file_revisions (
    revision_id TEXT PRIMARY KEY,
    file_id TEXT NOT NULL,
    revision_number INTEGER NOT NULL CHECK (revision_number > 0),
    payload_ref TEXT NOT NULL,
    filesize INTEGER NOT NULL,
    content_type TEXT NOT NULL,
    icon_kind TEXT NOT NULL,
    thumb_ref TEXT,
    comment TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL,
    updated_by TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (file_id) REFERENCES files(file_id)
);`

	createTags = `CREATE TABLE IF NOT EXISTS tags (
    tag_id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    rel_type TEXT NOT NULL,
    rel_id TEXT NOT NULL,
    owner_id TEXT,
    ordinal INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createComments = `CREATE TABLE IF NOT EXISTS comments (
    comment_id TEXT PRIMARY KEY,
    rel_type TEXT NOT NULL,
    rel_id TEXT NOT NULL,
    author_id TEXT NOT NULL,
    body TEXT NOT NULL,
    is_private INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);`

	createAttachments = `CREATE TABLE IF NOT EXISTS attachments (
    owner_type TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    file_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (owner_type, owner_id, file_id),
    FOREIGN KEY (file_id) REFERENCES files(file_id)
);`

	createAuditLog = `CREATE TABLE IF NOT EXISTS audit_log (
    entry_id TEXT PRIMARY KEY,
    seq INTEGER NOT NULL,
    rel_type TEXT NOT NULL,
    rel_id TEXT NOT NULL,
    object_name TEXT NOT NULL,
    project_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    action TEXT NOT NULL CHECK (action IN ('add', 'edit', 'delete')),
    created_at TEXT NOT NULL
);`

	createWikiPages = `CREATE TABLE IF NOT EXISTS wiki_pages (
    page_id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    slug TEXT NOT NULL,
    title TEXT NOT NULL CHECK (title <> ''),
    content TEXT NOT NULL DEFAULT '',
    main INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL. The unique indexes carry invariants the service layer relies
// on: one revision per number per file, one slug per project, one main page
// per project.
const (
	idxFilesProject    = `CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);`
	idxRevisionsUnique = `CREATE UNIQUE INDEX IF NOT EXISTS idx_revisions_unique ON file_revisions(file_id, revision_number);`
	idxTagsRel         = `CREATE INDEX IF NOT EXISTS idx_tags_rel ON tags(rel_type, rel_id);`
	idxCommentsRel     = `CREATE INDEX IF NOT EXISTS idx_comments_rel ON comments(rel_type, rel_id);`
	idxAttachmentsFile = `CREATE INDEX IF NOT EXISTS idx_attachments_file ON attachments(file_id);`
	idxAuditRel        = `CREATE INDEX IF NOT EXISTS idx_audit_rel ON audit_log(rel_type, rel_id);`
	idxAuditProject    = `CREATE INDEX IF NOT EXISTS idx_audit_project ON audit_log(project_id, seq);`
	idxWikiSlugUnique  = `CREATE UNIQUE INDEX IF NOT EXISTS idx_wiki_slug_unique ON wiki_pages(project_id, slug);`
	idxWikiMainUnique  = `CREATE UNIQUE INDEX IF NOT EXISTS idx_wiki_main_unique ON wiki_pages(project_id) WHERE main = 1;`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createFiles,
	createRevisions,
	createTags,
	createComments,
	createAttachments,
	createAuditLog,
	createWikiPages,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFilesProject,
	idxRevisionsUnique,
	idxTagsRel,
	idxCommentsRel,
	idxAttachmentsFile,
	idxAuditRel,
	idxAuditProject,
	idxWikiSlugUnique,
	idxWikiMainUnique,
}
