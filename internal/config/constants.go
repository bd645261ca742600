package config

import "time"

const (
	// Monitor Defaults
	DefaultUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultHTTPTimeoutSeconds = 10
	DefaultMaxContentSize     = 10 * 1024 * 1024
	DefaultMaxRetries         = 2
	DefaultRetryBaseDelayMs   = 500

	// Storage Defaults
	DefaultStorageDataDir       = "data"
	DefaultStorageSnapshotDir   = "data/snapshots"
	DefaultStorageLastDiffPath  = "data/diff.txt"
	DefaultStorageSQLitePath    = "data/tasks.db"
	DefaultStorageHistoryDir    = "data/history"
	DefaultStorageHistoryLimit  = 100
	DefaultStorageCompressCodec = "zstd"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3
	DefaultMaxLogAgeDays = 28

	// Classifier Defaults
	DefaultClassifierBaseURL           = "https://api.openai.com/v1"
	DefaultClassifierTimeoutSeconds    = 60
	DefaultClassifierRequestsPerMinute = 20

	// Email Defaults
	EmailModeSMTP             = "smtp"
	EmailModeSendCloud        = "sendcloud"
	DefaultEmailMode          = EmailModeSendCloud
	DefaultSMTPPort           = 587
	DefaultSendCloudEndpoint  = "https://api.sendcloud.net/apiv2/mail/send"
	DefaultSendCloudFrom      = "service@sendcloud.im"
	DefaultSendCloudFromName  = "Web Change Notify"
	DefaultEmailTimeoutSecond = 30

	// Template Defaults
	DefaultSubjectTemplate  = "[{{website_name}}] 网站更新通知"
	DefaultChangeTimeLayout = "2006-01-02 15:04:05"

	// API Defaults
	DefaultAPIListenAddr      = "127.0.0.1:5000"
	DefaultAPIShutdownTimeout = 10 * time.Second

	// Environment variables
	EnvConfigPath        = "CHANGEWATCH_CONFIG_PATH"
	EnvClassifierAPIKey  = "CHANGEWATCH_CLASSIFIER_API_KEY"
	EnvClassifierBaseURL = "CHANGEWATCH_CLASSIFIER_BASE_URL"
	EnvClassifierModel   = "CHANGEWATCH_CLASSIFIER_MODEL"
	EnvSMTPPassword      = "CHANGEWATCH_SMTP_PASSWORD"
	EnvSendCloudAPIKey   = "CHANGEWATCH_SENDCLOUD_API_KEY"
)

// DefaultBodyTemplate is the email body used when none is configured.
const DefaultBodyTemplate = `
网站: {{website_name}}
URL: {{url}}
检测时间: {{change_time}}

变化内容:
{{changes}}

{{ai_analysis}}
`

// DefaultAnalysisTemplate renders the classifier verdict into {{ai_analysis}}.
const DefaultAnalysisTemplate = `
AI分析结果:
是否需要 review: {{review_needed}}
变动内容: {{summary}}
原因: {{reason}}
`
