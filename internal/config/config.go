package config

import (
	"errors"
	"os"
	"strconv"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendDynamoDB    = "dynamodb"
	BackendPostgres    = "postgres"
	BackendObjectStore = "objectstore"
)

// Defaults applied when an invocation leaves the record fields out.
const (
	DefaultGatewayYear   = 2024
	DefaultGatewayTitle  = "The title here, Added by AWS Lambda, and invoked by AWS API Gateway."
	DefaultWorkflowYear  = 2024
	DefaultWorkflowTitle = "Default Step Functions Title"
)

var ErrTableNameRequired = errors.New("TABLE_NAME is required for the dynamodb backend")

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DynamoDBConfig holds the record table settings.
type DynamoDBConfig struct {
	TableName string
	Region    string
	// Endpoint overrides the resolved service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// RecordDefaults is the year/title pair written when an invocation omits them.
type RecordDefaults struct {
	Year  int
	Title string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port            string
	LogLevel        string
	StoreBackend    string
	DynamoDB        DynamoDBConfig
	GatewayDefault  RecordDefaults
	WorkflowDefault RecordDefaults
	Database        DatabaseConfig
	MinIO           MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file is auto-loaded by the binaries via _ "github.com/joho/godotenv/autoload";
// real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", BackendDynamoDB),
		DynamoDB: DynamoDBConfig{
			TableName: getEnv("TABLE_NAME", ""),
			Region:    getEnv("AWS_REGION", ""),
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
		},
		GatewayDefault: RecordDefaults{
			Year:  getEnvInt("GATEWAY_DEFAULT_YEAR", DefaultGatewayYear),
			Title: getEnv("GATEWAY_DEFAULT_TITLE", DefaultGatewayTitle),
		},
		WorkflowDefault: RecordDefaults{
			Year:  getEnvInt("WORKFLOW_DEFAULT_YEAR", DefaultWorkflowYear),
			Title: getEnv("WORKFLOW_DEFAULT_TITLE", DefaultWorkflowTitle),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", "records"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

// Validate checks the settings the selected backend cannot start without.
// The postgres and objectstore backends validate their own groups on connect.
func (c *AppConfig) Validate() error {
	if c.StoreBackend == BackendDynamoDB && c.DynamoDB.TableName == "" {
		return ErrTableNameRequired
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
