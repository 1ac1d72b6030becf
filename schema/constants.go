package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for a store.
	DatabaseBackend string

	// OrderPolicy represents how the daily series is ordered.
	OrderPolicy string

	// SourceKind represents where commit records come from.
	SourceKind string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	YAMLOut    OutputMode = "yaml"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis"
	NoneBackend       DatabaseBackend = "none"
)

// All ordering policies supported.
const (
	ChronologicalOrder OrderPolicy = "chronological" // default
	FirstSeenOrder     OrderPolicy = "first-seen"
)

// All commit sources supported.
const (
	FileSource   SourceKind = "file" // default
	HTTPSource   SourceKind = "http"
	GitHubSource SourceKind = "github"
	GitSource    SourceKind = "git"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	YAMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidOrderPolicies lists all valid ordering policies.
var ValidOrderPolicies = map[OrderPolicy]struct{}{
	ChronologicalOrder: {},
	FirstSeenOrder:     {},
}

// ValidSourceKinds lists all valid commit sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	FileSource:   {},
	HTTPSource:   {},
	GitHubSource: {},
	GitSource:    {},
}

// DateLayout is the calendar date representation used across the daily series.
const DateLayout = "2006-01-02"

// DefaultWindowDays is the trailing window shown when no range is requested.
const DefaultWindowDays = 7
