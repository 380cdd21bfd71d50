// Package config resolves run settings from defaults, an optional config
// file, MENUS_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: es.hostname -> MENUS_ES_HOSTNAME.
const EnvPrefix = "MENUS"

// Keys.
const (
	KeyConfigFile     = "config"
	KeySourceData     = "source_data"
	KeyLogHome        = "log_home"
	KeyOutputDir      = "output_dir"
	KeyBatchSize      = "batch_size"
	KeyBaseURL        = "base_url"
	KeyVerbose        = "verbose"
	KeyDryRun         = "dry_run"
	KeySentryDSN      = "sentry_dsn"
	KeyESHost         = "es.hostname"
	KeyESPort         = "es.host_port"
	KeyESScheme       = "es.scheme"
	KeyESIndex        = "es.index"
	KeyESType         = "es.type"
	KeyESTimeout      = "es.timeout"
	KeyESReplicas     = "es.replicas"
	KeyMirrorKind     = "mirror.kind"
	KeyMirrorDSN      = "mirror.dsn"
	KeyMirrorTable    = "mirror.table"
	KeyMetricsBackend = "metrics.backend"
	KeyMetricsJob     = "metrics.job"
	KeyPushgatewayURL = "metrics.pushgateway_url"
	KeyMetricsTags    = "metrics.tags"
)

// Engine addresses the search engine and names the target index.
type Engine struct {
	Host     string
	Port     int
	Scheme   string
	Index    string
	Type     string
	Timeout  time.Duration
	Replicas int
}

// Address is the engine base URL.
func (e Engine) Address() string {
	return e.Scheme + "://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Mirror configures the optional SQL mirror. Empty Kind disables it.
type Mirror struct {
	Kind  string
	DSN   string
	Table string
}

// Metrics selects the metrics backend.
type Metrics struct {
	Backend        string // none | datadog | pushgateway
	JobName        string
	PushgatewayURL string
	Tags           []string
}

// Config is one run's settings.
type Config struct {
	SourcePath string
	LogHome    string
	Engine     Engine
	BatchSize  int
	BaseURL    string
	Verbose    bool
	DryRun     bool
	ExportDir  string
	Mirror     Mirror
	Metrics    Metrics
	SentryDSN  string
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBatchSize, 1000)
	v.SetDefault(KeyBaseURL, "http://menus.nypl.org")
	v.SetDefault(KeyESHost, "localhost")
	v.SetDefault(KeyESPort, 9200)
	v.SetDefault(KeyESScheme, "http")
	v.SetDefault(KeyESIndex, "menus")
	v.SetDefault(KeyESType, "item")
	v.SetDefault(KeyESTimeout, 60*time.Second)
	v.SetDefault(KeyESReplicas, 1)
	v.SetDefault(KeyMirrorTable, "menu_documents")
	v.SetDefault(KeyMetricsBackend, "none")
	v.SetDefault(KeyMetricsJob, "menus")
	v.SetDefault(KeyPushgatewayURL, "http://localhost:9091")
	return v
}

// Load reads the optional config file named by KeyConfigFile and resolves
// a Config from v.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return Config{
		SourcePath: v.GetString(KeySourceData),
		LogHome:    v.GetString(KeyLogHome),
		Engine: Engine{
			Host:     v.GetString(KeyESHost),
			Port:     v.GetInt(KeyESPort),
			Scheme:   v.GetString(KeyESScheme),
			Index:    v.GetString(KeyESIndex),
			Type:     v.GetString(KeyESType),
			Timeout:  v.GetDuration(KeyESTimeout),
			Replicas: v.GetInt(KeyESReplicas),
		},
		BatchSize: v.GetInt(KeyBatchSize),
		BaseURL:   strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		Verbose:   v.GetBool(KeyVerbose),
		DryRun:    v.GetBool(KeyDryRun),
		ExportDir: v.GetString(KeyOutputDir),
		Mirror: Mirror{
			Kind:  v.GetString(KeyMirrorKind),
			DSN:   v.GetString(KeyMirrorDSN),
			Table: v.GetString(KeyMirrorTable),
		},
		Metrics: Metrics{
			Backend:        v.GetString(KeyMetricsBackend),
			JobName:        v.GetString(KeyMetricsJob),
			PushgatewayURL: v.GetString(KeyPushgatewayURL),
			Tags:           splitCSV(v.GetString(KeyMetricsTags)),
		},
		SentryDSN: v.GetString(KeySentryDSN),
	}, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
