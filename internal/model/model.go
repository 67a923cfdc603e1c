// Package model contains the single source of truth for the entities the
// studio persists and passes across the command surface: spaces, tabs,
// folders, snippets, archived tabs, connection descriptors, query results,
// and schema metadata.
package model

import "time"

// Dialect identifies a supported database engine.
type Dialect string

const (
	DialectMSSQL    Dialect = "mssql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
)

// IsFile reports whether d is addressed by a local file path rather than
// a host/port pair.
func (d Dialect) IsFile() bool {
	return d == DialectSQLite
}

// TabType enumerates the kind of buffer a Tab represents.
type TabType string

const (
	TabQuery    TabType = "query"
	TabResults  TabType = "results"
	TabSchema   TabType = "schema"
	TabSettings TabType = "settings"
)

// PostgresSSLMode mirrors libpq's sslmode values.
type PostgresSSLMode string

const (
	SSLModeDisable    PostgresSSLMode = "disable"
	SSLModePrefer     PostgresSSLMode = "prefer"
	SSLModeRequire    PostgresSSLMode = "require"
	SSLModeVerifyCA   PostgresSSLMode = "verify-ca"
	SSLModeVerifyFull PostgresSSLMode = "verify-full"
)

// ConnectionConfig is the connection descriptor carried by a Space or a
// standalone connection. Password is never serialized outward; callers at
// the command boundary must use an accessor that strips it.
type ConnectionConfig struct {
	ID       string  `json:"id"`
	SpaceID  *string `json:"spaceId,omitempty"`
	Name     string  `json:"name"`
	Dialect  Dialect `json:"dialect"`
	Host     string  `json:"host,omitempty"`
	Port     int     `json:"port,omitempty"`
	Database string  `json:"database"`
	Username string  `json:"username,omitempty"`
	Password string  `json:"-"`

	MSSQLTrustCert bool            `json:"mssqlTrustCert,omitempty"`
	MSSQLEncrypt   bool            `json:"mssqlEncrypt,omitempty"`
	PostgresSSL    PostgresSSLMode `json:"postgresSslmode,omitempty"`
	MySQLSSL       bool            `json:"mysqlSsl,omitempty"`
}

// HasConnection reports whether a Space's embedded fields amount to a
// usable connection descriptor, per the invariant in SPEC_FULL.md §4.
func (c ConnectionConfig) HasConnection() bool {
	if c.Database == "" {
		return false
	}
	if c.Dialect.IsFile() {
		return true
	}
	return c.Host != ""
}

// Redacted returns a copy with Password cleared, safe to hand to the UI.
func (c ConnectionConfig) Redacted() ConnectionConfig {
	c.Password = ""
	return c
}

// Space is a workspace bound to at most one database connection.
type Space struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Color            string            `json:"color,omitempty"`
	Icon             string            `json:"icon,omitempty"`
	LastActiveTabID  *string           `json:"lastActiveTabId,omitempty"`
	SortOrder        int               `json:"sortOrder"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	Connection       *ConnectionConfig `json:"connection,omitempty"`
}

// HasConnection reports whether the space carries a usable connection.
func (s Space) HasConnection() bool {
	return s.Connection != nil && s.Connection.HasConnection()
}

// Tab is an editor buffer inside a Space.
type Tab struct {
	ID               string    `json:"id"`
	SpaceID          string    `json:"spaceId"`
	Title            string    `json:"title"`
	Type             TabType   `json:"type"`
	Content          string    `json:"content,omitempty"`
	Metadata         string    `json:"metadata,omitempty"`
	Database         string    `json:"database,omitempty"`
	FolderID         *string   `json:"folderId,omitempty"`
	IsPinned         bool      `json:"isPinned"`
	SortOrder        int       `json:"sortOrder"`
	LastAccessedAt   time.Time `json:"lastAccessedAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Folder groups pinned tabs inside a Space.
type Folder struct {
	ID         string    `json:"id"`
	SpaceID    string    `json:"spaceId"`
	Name       string    `json:"name"`
	IsExpanded bool      `json:"isExpanded"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Snippet is a trigger-to-expansion text template.
type Snippet struct {
	ID          string    `json:"id"`
	Trigger     string    `json:"trigger"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsBuiltin   bool      `json:"isBuiltin"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ArchivedTab is an immutable snapshot of a closed Tab.
type ArchivedTab struct {
	ID             string    `json:"id"`
	OriginalTabID  string    `json:"originalTabId"`
	SpaceID        *string   `json:"spaceId,omitempty"`
	SpaceName      string    `json:"spaceName"`
	Title          string    `json:"title"`
	Type           TabType   `json:"type"`
	Content        string    `json:"content,omitempty"`
	Metadata       string    `json:"metadata,omitempty"`
	Database       string    `json:"database,omitempty"`
	WasPinned      bool      `json:"wasPinned"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	ArchivedAt     time.Time `json:"archivedAt"`
}

// ArchiveSearchHit is one result of a full-text or LIKE archive search.
type ArchiveSearchHit struct {
	Entry           ArchivedTab `json:"entry"`
	Rank            *float64    `json:"rank,omitempty"`
	TitleSnippet    string      `json:"titleSnippet"`
	ContentSnippet  string      `json:"contentSnippet"`
}

// CellKind tags the dynamic type carried by a Cell.
type CellKind string

const (
	CellNull     CellKind = "null"
	CellBool     CellKind = "bool"
	CellInt64    CellKind = "int64"
	CellFloat64  CellKind = "float64"
	CellString   CellKind = "string"
	CellDateTime CellKind = "datetime"
	CellBinary   CellKind = "binary"
)

// Cell is a tagged-variant value for one result cell.
type Cell struct {
	Kind  CellKind `json:"kind"`
	Bool  bool     `json:"bool,omitempty"`
	Int64 int64    `json:"int64,omitempty"`
	Float float64  `json:"float,omitempty"`
	Text  string   `json:"text,omitempty"`
	Bytes []byte   `json:"bytes,omitempty"`
}

func NullCell() Cell                  { return Cell{Kind: CellNull} }
func BoolCell(v bool) Cell            { return Cell{Kind: CellBool, Bool: v} }
func Int64Cell(v int64) Cell          { return Cell{Kind: CellInt64, Int64: v} }
func Float64Cell(v float64) Cell      { return Cell{Kind: CellFloat64, Float: v} }
func StringCell(v string) Cell        { return Cell{Kind: CellString, Text: v} }
func DateTimeCell(v string) Cell      { return Cell{Kind: CellDateTime, Text: v} }
func BinaryCell(v []byte) Cell        { return Cell{Kind: CellBinary, Bytes: v} }

// QueryResult is the transport record for one executed statement.
type QueryResult struct {
	QueryID         string   `json:"queryId"`
	Columns         []string `json:"columns"`
	Rows            [][]Cell `json:"rows"`
	RowCount        int      `json:"rowCount"`
	ExecutionTimeMS int64    `json:"executionTimeMs"`
	Error           string   `json:"error,omitempty"`
	IsComplete      bool     `json:"isComplete"`
	IsSelection     bool     `json:"isSelection,omitempty"`
	StatementIndex  *int     `json:"statementIndex,omitempty"`
	StatementText   string   `json:"statementText,omitempty"`
}

// ColumnInfo describes one column of a table or view.
type ColumnInfo struct {
	Name            string  `json:"name"`
	DataType        string  `json:"dataType"`
	MaxLength       *int    `json:"maxLength,omitempty"`
	Precision       *int    `json:"precision,omitempty"`
	Scale           *int    `json:"scale,omitempty"`
	IsNullable      bool    `json:"isNullable"`
	IsPrimaryKey    bool    `json:"isPrimaryKey"`
	IsIdentity      bool    `json:"isIdentity"`
	ColumnDefault   *string `json:"columnDefault,omitempty"`
	OrdinalPosition int     `json:"ordinalPosition"`
}

// TableInfo describes a table or view and its columns.
type TableInfo struct {
	Schema  string       `json:"schema"`
	Name    string       `json:"name"`
	IsView  bool         `json:"isView"`
	Columns []ColumnInfo `json:"columns"`
}

// RoutineParameter describes one parameter of a stored routine.
type RoutineParameter struct {
	Name            string  `json:"name"`
	DataType        string  `json:"dataType"`
	MaxLength       *int    `json:"maxLength,omitempty"`
	Precision       *int    `json:"precision,omitempty"`
	Scale           *int    `json:"scale,omitempty"`
	Mode            string  `json:"mode"` // IN, OUT, INOUT
	OrdinalPosition int     `json:"ordinalPosition"`
	HasDefault      bool    `json:"hasDefault"`
}

// RoutineInfo describes a stored procedure or function.
type RoutineInfo struct {
	Schema     string             `json:"schema"`
	Name       string             `json:"name"`
	IsFunction bool               `json:"isFunction"`
	Parameters []RoutineParameter `json:"parameters"`
}

// SchemaInfo is one cache entry keyed by connection id + database name.
type SchemaInfo struct {
	DatabaseName string        `json:"databaseName"`
	Schemas      []string      `json:"schemas"`
	Tables       []TableInfo   `json:"tables"`
	Routines     []RoutineInfo `json:"routines"`
	FetchedAt    time.Time     `json:"fetchedAt"`
}

// AutoArchiveSettings controls the inactivity sweep.
type AutoArchiveSettings struct {
	Enabled      bool `json:"enabled"`
	DaysInactive int  `json:"daysInactive"`
}

// AppSettings is the global settings bag.
type AppSettings struct {
	ValidationEnabled   bool                `json:"validationEnabled"`
	LastSpaceID         *string             `json:"lastSpaceId,omitempty"`
	LastTabID           *string             `json:"lastTabId,omitempty"`
	EnableStickyNotes   bool                `json:"enableStickyNotes"`
	MaxResultRows       int                 `json:"maxResultRows"`
	AutoArchive         AutoArchiveSettings `json:"autoArchive"`
	HistoryRetentionDays int                `json:"historyRetentionDays"`
}

// DefaultAppSettings returns the factory defaults used when no settings
// have been saved yet.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		ValidationEnabled:    true,
		EnableStickyNotes:    true,
		MaxResultRows:        1000,
		AutoArchive:          AutoArchiveSettings{Enabled: true, DaysInactive: 14},
		HistoryRetentionDays: 90,
	}
}

// QueryStatus is the lifecycle state of a tracked statement.
type QueryStatus string

const (
	QueryRunning   QueryStatus = "running"
	QueryCompleted QueryStatus = "completed"
	QueryCancelled QueryStatus = "cancelled"
	QueryFailed    QueryStatus = "failed"
)
