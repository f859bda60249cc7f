package main

// SQLite always registers. PostgreSQL and SQL Server register only when
// built with -tags postgres, -tags mssql or -tags all_adapters.
import (
	_ "github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource/sqlite"
)
