package constants

// Application identity
const (
	APP_NAME        = "taskly"
	SERVICE_NAME    = "taskly"
	SERVICE_DESC    = "Taskly system monitor"
	ENV_PREFIX      = "TASKLY"
	CONFIG_DIR_NAME = "/.taskly"
)

// Default sampling configuration
const (
	DEFAULT_POLL_INTERVAL = "1s"
	DEFAULT_HISTORY_SIZE  = 30  // points per chart series
	DEFAULT_CACHE_TTL     = "5s" // disk and battery readings
	DEFAULT_DISK_PATH     = "/"
)

// Default process ranking
const (
	DEFAULT_TOP_PROCESSES = 7
	DEFAULT_SORT_BY       = "cpu"
	DEFAULT_NORMALIZE_CPU = true
)

// Default alert thresholds (percent / celsius)
const (
	DEFAULT_CPU_THRESHOLD    = 90.0
	DEFAULT_MEMORY_THRESHOLD = 85.0
	DEFAULT_TEMP_THRESHOLD   = 80.0

	// At or above these marks an alert is critical instead of warning
	DEFAULT_CPU_CRITICAL    = 95.0
	DEFAULT_MEMORY_CRITICAL = 95.0
	DEFAULT_TEMP_CRITICAL   = 95.0

	DEFAULT_ALERT_COOLDOWN = "30s"
	DEFAULT_ALERT_CAPACITY = 10
	DEFAULT_RECENT_ALERTS  = 5
)

// Network chart scale: combined KB/s divided by this, capped at 100
const NET_CHART_DIVISOR = 10.0

// Export
const (
	DEFAULT_EXPORT_DIR     = "exports"
	EXPORT_FILE_PREFIX     = "taskly_metrics_"
	EXPORT_TIME_LAYOUT     = "20060102_150405"
	DEFAULT_EXPORT_HISTORY = 10
)

// Language preference
const (
	DEFAULT_PREFERENCES_FILE = "~/.taskly_config.json"
	DEFAULT_LANGUAGE         = "fr"
	LANGUAGE_KEY             = "language"
)

// ALLOWED_LANGUAGES is the whitelist for the persisted language preference
var ALLOWED_LANGUAGES = []string{"fr", "en"}

// Telemetry and API
const (
	DEFAULT_HTTP_LISTEN   = ""
	DEFAULT_OTLP_ENDPOINT = ""
	METRIC_NAMESPACE      = "taskly"
	OTLP_PUSH_INTERVAL    = 15 // seconds
)

// Alert history database; an empty path disables it
const (
	DEFAULT_ALERT_DB        = ""
	DEFAULT_ALERT_RETENTION = "168h"
	DEFAULT_ALERT_HISTORY   = 20
)

// File paths
const (
	PID_FILE          = "/tmp/taskly.pid"
	LOG_FILE          = "/tmp/taskly.log"
	DEFAULT_LOG_LEVEL = "info"
)
