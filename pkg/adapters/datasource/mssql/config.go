package mssql

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
)

// Authentication methods.
const (
	AuthSQL              = "sql"
	AuthServicePrincipal = "service_principal"
	AuthAccessToken      = "access_token"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Port     int
	Database string
	Schema   string // schema used for unqualified table names

	// AuthMethod is one of AuthSQL, AuthServicePrincipal or AuthAccessToken.
	AuthMethod string

	// SQL Authentication fields
	Username string
	Password string

	// Service Principal (Azure AD) fields
	TenantID     string
	ClientID     string
	ClientSecret string

	// Pre-acquired Azure AD access token
	AzureAccessToken string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// DefaultSchema returns the schema unqualified table names resolve in.
func DefaultSchema() string {
	return "dbo"
}

// FromMap creates a Config from a generic config map. The auth method is
// taken from "auth_method" or detected from the credentials present:
// azure_access_token, then client_id, then username/user.
func FromMap(m map[string]any) (*Config, error) {
	cfg := &Config{
		Port:              DefaultPort(),
		Schema:            DefaultSchema(),
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
	}

	var ok bool
	if cfg.Host, ok = datasource.StringValue(m, "host"); !ok {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Database, ok = datasource.StringValue(m, "database", "name"); !ok {
		return nil, fmt.Errorf("database is required")
	}
	if schema, ok := datasource.StringValue(m, "schema"); ok {
		cfg.Schema = schema
	}

	port, ok, err := datasource.IntValue(m, "port")
	if err != nil {
		return nil, err
	}
	if ok {
		cfg.Port = port
	}

	timeout, ok, err := datasource.IntValue(m, "connection_timeout")
	if err != nil {
		return nil, err
	}
	if ok {
		cfg.ConnectionTimeout = timeout
	}

	// "strict" is accepted as a string spelling of encrypt=true
	if s, ok := datasource.StringValue(m, "encrypt"); ok && s == "strict" {
		cfg.Encrypt = true
	} else if encrypt, ok := datasource.BoolValue(m, "encrypt"); ok {
		cfg.Encrypt = encrypt
	}
	if trust, ok := datasource.BoolValue(m, "trust_server_certificate"); ok {
		cfg.TrustServerCertificate = trust
	}

	if method, ok := datasource.StringValue(m, "auth_method"); ok {
		cfg.AuthMethod = method
	} else if _, ok := datasource.StringValue(m, "azure_access_token"); ok {
		cfg.AuthMethod = AuthAccessToken
	} else if _, ok := datasource.StringValue(m, "client_id"); ok {
		cfg.AuthMethod = AuthServicePrincipal
	} else if _, ok := datasource.StringValue(m, "username", "user"); ok {
		cfg.AuthMethod = AuthSQL
	} else {
		return nil, fmt.Errorf("could not auto-detect auth method; no credentials provided")
	}

	cfg.Username, _ = datasource.StringValue(m, "username", "user")
	cfg.Password, _ = datasource.StringValue(m, "password")
	cfg.TenantID, _ = datasource.StringValue(m, "tenant_id")
	cfg.ClientID, _ = datasource.StringValue(m, "client_id")
	cfg.ClientSecret, _ = datasource.StringValue(m, "client_secret")
	cfg.AzureAccessToken, _ = datasource.StringValue(m, "azure_access_token")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the fields required by the auth method are set.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.AuthMethod {
	case AuthSQL:
		if c.Username == "" {
			return fmt.Errorf("username is required for SQL authentication")
		}
	case AuthServicePrincipal:
		if c.TenantID == "" {
			return fmt.Errorf("tenant_id is required for service principal authentication")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id is required for service principal authentication")
		}
		if c.ClientSecret == "" {
			return fmt.Errorf("client_secret is required for service principal authentication")
		}
	case AuthAccessToken:
		if c.AzureAccessToken == "" {
			return fmt.Errorf("azure_access_token is required for access token authentication")
		}
	default:
		return fmt.Errorf("invalid auth method: %s (must be sql, service_principal, or access_token)", c.AuthMethod)
	}
	return nil
}
