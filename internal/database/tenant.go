package database

import (
	"context"
	"regexp"
)

type contextKey string

const tenantSchemaKey contextKey = "tenant_schema"

// Schema names are created by provisioning from condominium slugs; anything
// else is rejected before it can reach a query.
var schemaNamePattern = regexp.MustCompile(`^condo_[a-z0-9_]{1,48}$`)

// ValidTenantSchema reports whether name is a well-formed condominium
// schema name.
func ValidTenantSchema(name string) bool {
	return schemaNamePattern.MatchString(name)
}

// WithTenantSchema returns a context carrying the persistence context of a
// condominium. Tenant-realm repositories require it; calling one without a
// schema in context is a programming error surfaced as ErrBadRequest.
func WithTenantSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, tenantSchemaKey, schema)
}

// TenantSchemaFromContext extracts the condominium schema set by
// WithTenantSchema, or "" when absent.
func TenantSchemaFromContext(ctx context.Context) string {
	schema, _ := ctx.Value(tenantSchemaKey).(string)
	return schema
}
