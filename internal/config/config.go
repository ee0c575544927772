// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the table export tool.
type Config struct {
	// Data source
	DataSource string // "mock" or "mysql"

	// MySQL connection (mysql data source only)
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
	FieldsTable   string
	RecordsTable  string

	// AWS Secrets Manager fallback for the MySQL password
	DBSecretName string
	AWSRegion    string

	// Storage backend
	Storage   string // "dir", "download", or "s3"
	OutputDir string
	S3Bucket  string
	S3Prefix  string

	// Export selection
	Format           string // "txt", "docx", or "pdf"
	NamingField      string
	TextFields       []string
	AttachmentFields []string

	// Combined mode writes one document for the whole table instead of
	// per-record files.
	Combined bool

	// Attachment downloads
	FetchAttachments      bool
	RequestDelayMs        int // Default: 200
	AttachmentURLTemplate string

	// SQL query timeout (seconds)
	SQLTimeout int // Default: 5

	// Output control
	Debug bool
	Quiet bool // Suppress the summary block (useful when run via script)
}

// LoadConfig loads configuration from CLI flags, environment variables, and YAML file.
// Priority: CLI flags > environment variables > YAML file > defaults
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// CLI flags
	dataSource := flag.String("data-source", "", "Data source: mock or mysql (default: mock)")
	mysqlHost := flag.String("mysql-host", "", "MySQL host:port")
	mysqlPort := flag.Int("mysql-port", 0, "MySQL port (default: 3306)")
	mysqlUser := flag.String("mysql-user", "", "MySQL username")
	mysqlPassword := flag.String("mysql-password", "", "MySQL password")
	mysqlDatabase := flag.String("mysql-database", "", "MySQL database name")
	fieldsTable := flag.String("fields-table", "", "Field metadata table (default: table_fields)")
	recordsTable := flag.String("records-table", "", "Record cell table (default: table_records)")
	dbSecret := flag.String("db-secret", "", "AWS Secrets Manager secret name for the MySQL password")
	awsRegion := flag.String("aws-region", "", "AWS region")
	storage := flag.String("storage", "", "Storage backend: dir, download, or s3 (default: dir)")
	outputDir := flag.String("output-dir", "", "Root directory for exports (default: ./export)")
	s3Bucket := flag.String("s3-bucket", "", "S3 bucket name (s3 storage only)")
	s3Prefix := flag.String("s3-prefix", "", "S3 key prefix (default: table-export)")
	format := flag.String("format", "", "Document format: txt, docx, or pdf (default: docx)")
	namingField := flag.String("naming-field", "", "Field ID that names record folders")
	textFields := flag.String("text-fields", "", "Comma-separated field IDs to export as documents")
	attachmentFields := flag.String("attachment-fields", "", "Comma-separated attachment field IDs to export")
	combined := flag.Bool("combined", false, "Write one combined document instead of per-record files")
	fetchAttachments := flag.Bool("fetch-attachments", false, "Download real attachment bytes instead of placeholders")
	requestDelayMs := flag.Int("request-delay-ms", 0, "Delay between attachment downloads in ms (default: 200)")
	urlTemplate := flag.String("attachment-url-template", "", "URL template for attachment tokens, must contain %s")
	sqlTimeout := flag.Int("sql-timeout", 0, "SQL query timeout in seconds (default: 5)")
	configFile := flag.String("config-file", "export-config.yaml", "Config file path (default: export-config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	quiet := flag.Bool("quiet", false, "Suppress the summary block (useful when run via script)")

	flag.Parse()

	// Load from YAML file if it exists
	if *configFile != "" {
		if err := loadFromYAML(cfg, *configFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnv(cfg)

	// Override with CLI flags (highest priority)
	if *dataSource != "" {
		cfg.DataSource = *dataSource
	}
	if *mysqlHost != "" {
		cfg.MySQLHost = *mysqlHost
	}
	if *mysqlPort > 0 {
		cfg.MySQLPort = *mysqlPort
	}
	if *mysqlUser != "" {
		cfg.MySQLUser = *mysqlUser
	}
	if *mysqlPassword != "" {
		cfg.MySQLPassword = *mysqlPassword
	}
	if *mysqlDatabase != "" {
		cfg.MySQLDatabase = *mysqlDatabase
	}
	if *fieldsTable != "" {
		cfg.FieldsTable = *fieldsTable
	}
	if *recordsTable != "" {
		cfg.RecordsTable = *recordsTable
	}
	if *dbSecret != "" {
		cfg.DBSecretName = *dbSecret
	}
	if *awsRegion != "" {
		cfg.AWSRegion = *awsRegion
	}
	if *storage != "" {
		cfg.Storage = *storage
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *s3Bucket != "" {
		cfg.S3Bucket = *s3Bucket
	}
	if *s3Prefix != "" {
		cfg.S3Prefix = *s3Prefix
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *namingField != "" {
		cfg.NamingField = *namingField
	}
	if *textFields != "" {
		cfg.TextFields = splitFields(*textFields)
	}
	if *attachmentFields != "" {
		cfg.AttachmentFields = splitFields(*attachmentFields)
	}
	if *combined {
		cfg.Combined = true
	}
	if *fetchAttachments {
		cfg.FetchAttachments = true
	}
	if *requestDelayMs > 0 {
		cfg.RequestDelayMs = *requestDelayMs
	}
	if *urlTemplate != "" {
		cfg.AttachmentURLTemplate = *urlTemplate
	}
	if *sqlTimeout > 0 {
		cfg.SQLTimeout = *sqlTimeout
	}
	if *debug {
		cfg.Debug = true
	}
	if *quiet {
		cfg.Quiet = true
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills unset fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.DataSource == "" {
		cfg.DataSource = "mock"
	}
	if cfg.MySQLPort == 0 {
		cfg.MySQLPort = 3306
	}
	if cfg.FieldsTable == "" {
		cfg.FieldsTable = "table_fields"
	}
	if cfg.RecordsTable == "" {
		cfg.RecordsTable = "table_records"
	}
	if cfg.Storage == "" {
		cfg.Storage = "dir"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./export"
	}
	if cfg.S3Prefix == "" {
		cfg.S3Prefix = "table-export"
	}
	if cfg.Format == "" {
		cfg.Format = "docx"
	}
	if cfg.RequestDelayMs == 0 {
		cfg.RequestDelayMs = 200
	}
	if cfg.AttachmentURLTemplate == "" {
		cfg.AttachmentURLTemplate = "https://example.com/mock-file/%s"
	}
	if cfg.SQLTimeout == 0 {
		cfg.SQLTimeout = 5
	}
}

// validate rejects invalid or incomplete configurations.
func validate(cfg *Config) error {
	switch cfg.DataSource {
	case "mock":
	case "mysql":
		if cfg.MySQLHost == "" {
			return fmt.Errorf("mysql-host is required when data-source is mysql")
		}
		if cfg.MySQLDatabase == "" {
			return fmt.Errorf("mysql-database is required when data-source is mysql")
		}
		if cfg.DBSecretName != "" && cfg.AWSRegion == "" {
			return fmt.Errorf("aws-region is required when db-secret is set")
		}
	default:
		return fmt.Errorf("invalid data-source %q (want mock or mysql)", cfg.DataSource)
	}

	switch cfg.Storage {
	case "dir", "download":
	case "s3":
		if cfg.S3Bucket == "" {
			return fmt.Errorf("s3-bucket is required when storage is s3")
		}
		if cfg.AWSRegion == "" {
			return fmt.Errorf("aws-region is required when storage is s3")
		}
	default:
		return fmt.Errorf("invalid storage %q (want dir, download, or s3)", cfg.Storage)
	}

	switch cfg.Format {
	case "txt", "docx", "pdf":
	default:
		return fmt.Errorf("invalid format %q (want txt, docx, or pdf)", cfg.Format)
	}

	if !strings.Contains(cfg.AttachmentURLTemplate, "%s") {
		return fmt.Errorf("attachment-url-template must contain %%s")
	}

	return nil
}

// loadFromYAML loads configuration from a YAML file.
func loadFromYAML(cfg *Config, filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return err
	}

	var yamlCfg struct {
		DataSource            string   `yaml:"data_source"`
		MySQLHost             string   `yaml:"mysql_host"`
		MySQLPort             int      `yaml:"mysql_port"`
		MySQLUser             string   `yaml:"mysql_user"`
		MySQLPassword         string   `yaml:"mysql_password"`
		MySQLDatabase         string   `yaml:"mysql_database"`
		FieldsTable           string   `yaml:"fields_table"`
		RecordsTable          string   `yaml:"records_table"`
		DBSecretName          string   `yaml:"db_secret"`
		AWSRegion             string   `yaml:"aws_region"`
		Storage               string   `yaml:"storage"`
		OutputDir             string   `yaml:"output_dir"`
		S3Bucket              string   `yaml:"s3_bucket"`
		S3Prefix              string   `yaml:"s3_prefix"`
		Format                string   `yaml:"format"`
		NamingField           string   `yaml:"naming_field"`
		TextFields            []string `yaml:"text_fields"`
		AttachmentFields      []string `yaml:"attachment_fields"`
		Combined              bool     `yaml:"combined"`
		FetchAttachments      bool     `yaml:"fetch_attachments"`
		RequestDelayMs        int      `yaml:"request_delay_ms"`
		AttachmentURLTemplate string   `yaml:"attachment_url_template"`
		SQLTimeout            int      `yaml:"sql_timeout"`
	}

	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return err
	}

	if yamlCfg.DataSource != "" {
		cfg.DataSource = yamlCfg.DataSource
	}
	if yamlCfg.MySQLHost != "" {
		cfg.MySQLHost = yamlCfg.MySQLHost
	}
	if yamlCfg.MySQLPort > 0 {
		cfg.MySQLPort = yamlCfg.MySQLPort
	}
	if yamlCfg.MySQLUser != "" {
		cfg.MySQLUser = yamlCfg.MySQLUser
	}
	if yamlCfg.MySQLPassword != "" {
		cfg.MySQLPassword = yamlCfg.MySQLPassword
	}
	if yamlCfg.MySQLDatabase != "" {
		cfg.MySQLDatabase = yamlCfg.MySQLDatabase
	}
	if yamlCfg.FieldsTable != "" {
		cfg.FieldsTable = yamlCfg.FieldsTable
	}
	if yamlCfg.RecordsTable != "" {
		cfg.RecordsTable = yamlCfg.RecordsTable
	}
	if yamlCfg.DBSecretName != "" {
		cfg.DBSecretName = yamlCfg.DBSecretName
	}
	if yamlCfg.AWSRegion != "" {
		cfg.AWSRegion = yamlCfg.AWSRegion
	}
	if yamlCfg.Storage != "" {
		cfg.Storage = yamlCfg.Storage
	}
	if yamlCfg.OutputDir != "" {
		cfg.OutputDir = yamlCfg.OutputDir
	}
	if yamlCfg.S3Bucket != "" {
		cfg.S3Bucket = yamlCfg.S3Bucket
	}
	if yamlCfg.S3Prefix != "" {
		cfg.S3Prefix = yamlCfg.S3Prefix
	}
	if yamlCfg.Format != "" {
		cfg.Format = yamlCfg.Format
	}
	if yamlCfg.NamingField != "" {
		cfg.NamingField = yamlCfg.NamingField
	}
	if len(yamlCfg.TextFields) > 0 {
		cfg.TextFields = yamlCfg.TextFields
	}
	if len(yamlCfg.AttachmentFields) > 0 {
		cfg.AttachmentFields = yamlCfg.AttachmentFields
	}
	cfg.Combined = yamlCfg.Combined
	cfg.FetchAttachments = yamlCfg.FetchAttachments
	if yamlCfg.RequestDelayMs > 0 {
		cfg.RequestDelayMs = yamlCfg.RequestDelayMs
	}
	if yamlCfg.AttachmentURLTemplate != "" {
		cfg.AttachmentURLTemplate = yamlCfg.AttachmentURLTemplate
	}
	if yamlCfg.SQLTimeout > 0 {
		cfg.SQLTimeout = yamlCfg.SQLTimeout
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if val := os.Getenv("TABLE_EXPORT_DATA_SOURCE"); val != "" {
		cfg.DataSource = val
	}
	if val := os.Getenv("TABLE_EXPORT_MYSQL_HOST"); val != "" {
		cfg.MySQLHost = val
	}
	if val := os.Getenv("TABLE_EXPORT_MYSQL_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.MySQLPort = port
		}
	}
	if val := os.Getenv("TABLE_EXPORT_MYSQL_USER"); val != "" {
		cfg.MySQLUser = val
	}
	if val := os.Getenv("TABLE_EXPORT_MYSQL_PASSWORD"); val != "" {
		cfg.MySQLPassword = val
	}
	if val := os.Getenv("TABLE_EXPORT_MYSQL_DATABASE"); val != "" {
		cfg.MySQLDatabase = val
	}
	if val := os.Getenv("TABLE_EXPORT_FIELDS_TABLE"); val != "" {
		cfg.FieldsTable = val
	}
	if val := os.Getenv("TABLE_EXPORT_RECORDS_TABLE"); val != "" {
		cfg.RecordsTable = val
	}
	if val := os.Getenv("TABLE_EXPORT_DB_SECRET"); val != "" {
		cfg.DBSecretName = val
	}
	if val := os.Getenv("TABLE_EXPORT_AWS_REGION"); val != "" {
		cfg.AWSRegion = val
	}
	if val := os.Getenv("TABLE_EXPORT_STORAGE"); val != "" {
		cfg.Storage = val
	}
	if val := os.Getenv("TABLE_EXPORT_OUTPUT_DIR"); val != "" {
		cfg.OutputDir = val
	}
	if val := os.Getenv("TABLE_EXPORT_S3_BUCKET"); val != "" {
		cfg.S3Bucket = val
	}
	if val := os.Getenv("TABLE_EXPORT_S3_PREFIX"); val != "" {
		cfg.S3Prefix = val
	}
	if val := os.Getenv("TABLE_EXPORT_FORMAT"); val != "" {
		cfg.Format = val
	}
	if val := os.Getenv("TABLE_EXPORT_NAMING_FIELD"); val != "" {
		cfg.NamingField = val
	}
	if val := os.Getenv("TABLE_EXPORT_TEXT_FIELDS"); val != "" {
		cfg.TextFields = splitFields(val)
	}
	if val := os.Getenv("TABLE_EXPORT_ATTACHMENT_FIELDS"); val != "" {
		cfg.AttachmentFields = splitFields(val)
	}
	if val := os.Getenv("TABLE_EXPORT_COMBINED"); val != "" {
		cfg.Combined = (val == "true" || val == "1")
	}
	if val := os.Getenv("TABLE_EXPORT_FETCH_ATTACHMENTS"); val != "" {
		cfg.FetchAttachments = (val == "true" || val == "1")
	}
	if val := os.Getenv("TABLE_EXPORT_REQUEST_DELAY_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			cfg.RequestDelayMs = ms
		}
	}
	if val := os.Getenv("TABLE_EXPORT_ATTACHMENT_URL_TEMPLATE"); val != "" {
		cfg.AttachmentURLTemplate = val
	}
	if val := os.Getenv("TABLE_EXPORT_SQL_TIMEOUT"); val != "" {
		if timeout, err := strconv.Atoi(val); err == nil {
			cfg.SQLTimeout = timeout
		}
	}
}

// splitFields parses a comma-separated field ID list, dropping empty entries.
func splitFields(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
