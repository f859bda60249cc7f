package mssql

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/ekaya-inc/ekaya-validator/pkg/config"
)

// driverFor returns the database/sql driver name and DSN for the config.
// Service principal and access token auth go through the azuread driver.
func driverFor(cfg *Config) (driver, dsn string, err error) {
	query := url.Values{}
	query.Add("database", cfg.Database)
	query.Add("encrypt", strconv.FormatBool(cfg.Encrypt))
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(cfg.ConnectionTimeout))
	}

	host := config.ResolveHostForDocker(cfg.Host)

	switch cfg.AuthMethod {
	case AuthSQL:
		return "sqlserver", fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
			url.QueryEscape(cfg.Username),
			url.QueryEscape(cfg.Password),
			host,
			cfg.Port,
			query.Encode(),
		), nil

	case AuthServicePrincipal:
		query.Add("fedauth", "ActiveDirectoryServicePrincipal")
		query.Add("user id", cfg.ClientID+"@"+cfg.TenantID)
		query.Add("password", cfg.ClientSecret)
		return "azuresql", fmt.Sprintf("sqlserver://%s:%d?%s", host, cfg.Port, query.Encode()), nil

	case AuthAccessToken:
		query.Add("fedauth", "ActiveDirectoryAccessToken")
		query.Add("password", cfg.AzureAccessToken)
		return "azuresql", fmt.Sprintf("sqlserver://%s:%d?%s", host, cfg.Port, query.Encode()), nil
	}

	return "", "", fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
}
