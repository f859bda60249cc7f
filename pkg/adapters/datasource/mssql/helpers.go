package mssql

import (
	"fmt"
	"strings"
)

// quoteName brackets an identifier the way QUOTENAME() does, escaping ] as ]].
func quoteName(identifier string) string {
	return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
}

// buildFullyQualifiedName builds [schema].[table].
func buildFullyQualifiedName(schema, table string) string {
	return quoteName(schema) + "." + quoteName(table)
}

// canonicalTypeName maps SQL Server type names onto the spellings the
// compatibility table uses.
func canonicalTypeName(sqlServerType string) string {
	switch t := strings.ToUpper(sqlServerType); t {
	case "INT":
		return "INTEGER"
	case "DECIMAL", "NUMERIC":
		return "NUMERIC"
	case "FLOAT":
		return "FLOAT"
	case "NCHAR":
		return "CHAR"
	case "NVARCHAR":
		return "VARCHAR"
	case "NTEXT":
		return "TEXT"
	case "DATETIME", "DATETIME2", "SMALLDATETIME":
		return "DATETIME"
	case "DATETIMEOFFSET":
		return "TIMESTAMP WITH TIME ZONE"
	case "BIT":
		return "BOOLEAN"
	default:
		return t
	}
}

// renderType builds the declared column type with its parameters.
// maxLength is in bytes as sys.columns reports it; -1 means MAX.
func renderType(typeName string, maxLength, precision, scale int) string {
	base := canonicalTypeName(typeName)

	switch strings.ToUpper(typeName) {
	case "VARCHAR", "CHAR", "VARBINARY", "BINARY":
		if maxLength < 0 {
			return base + "(MAX)"
		}
		return fmt.Sprintf("%s(%d)", base, maxLength)
	case "NVARCHAR", "NCHAR":
		if maxLength < 0 {
			return base + "(MAX)"
		}
		return fmt.Sprintf("%s(%d)", base, maxLength/2)
	case "DECIMAL", "NUMERIC":
		return fmt.Sprintf("%s(%d,%d)", base, precision, scale)
	}
	return base
}
