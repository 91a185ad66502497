package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Account is a registered user able to receive push notifications. Tokens is
// the account's registered token set; LastToken is the older single-column
// registration some clients still write. Both are valid delivery sources.
type Account struct {
	UID       string
	VendorID  string
	Tokens    []string
	LastToken string
}

// AudienceFilter narrows audience resolution to accounts whose linked vendor
// profile covers the given zip and appliance type. An empty field omits that
// clause entirely rather than matching nothing.
type AudienceFilter struct {
	Zip           string
	ApplianceType string
}

// Registry exposes the deliverable-token view of the account store. Reads are
// the normal path; RemoveTokens exists only for the logout flow and the
// explicit prune-on-invalid policy.
type Registry interface {
	ResolveAudience(ctx context.Context, filter *AudienceFilter) ([]Account, error)
	RemoveTokens(ctx context.Context, tokens []string) error
}

// PostgresRegistry reads accounts, vendor profiles and push tokens from the
// primary database.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// audienceQuery builds the audience SQL and its bind arguments. vendor_id is
// a uuid column: it must be cast to text before the COALESCE fallback, or the
// '' literal fails uuid parsing and the whole statement is rejected.
func audienceQuery(filter *AudienceFilter) (string, []interface{}) {
	query := `
		SELECT u.uid,
		       COALESCE(u.vendor_id::text, ''),
		       COALESCE(u.last_push_token, ''),
		       COALESCE(array_agg(pt.token) FILTER (WHERE pt.token IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN push_tokens pt ON pt.user_uid = u.uid`

	var conditions []string
	var args []interface{}

	if filter != nil && (filter.Zip != "" || filter.ApplianceType != "") {
		query += `
		JOIN vendors v ON v.id = u.vendor_id`
		if filter.Zip != "" {
			args = append(args, filter.Zip)
			conditions = append(conditions, fmt.Sprintf("$%d = ANY(v.service_areas)", len(args)))
		}
		if filter.ApplianceType != "" {
			args = append(args, filter.ApplianceType)
			conditions = append(conditions, fmt.Sprintf("$%d = ANY(v.appliance_types)", len(args)))
		}
	}

	if len(conditions) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		GROUP BY u.uid
		HAVING COUNT(pt.token) > 0 OR COALESCE(u.last_push_token, '') <> ''`

	return query, args
}

// ResolveAudience returns all accounts holding at least one non-empty token,
// optionally narrowed by vendor match. An empty result is not an error.
func (r *PostgresRegistry) ResolveAudience(ctx context.Context, filter *AudienceFilter) ([]Account, error) {
	query, args := audienceQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audience: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.UID, &a.VendorID, &a.LastToken, &a.Tokens); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audience rows: %w", err)
	}

	return accounts, nil
}

// RemoveTokens deletes the given tokens from every account's token set and
// clears matching last-token values.
func (r *PostgresRegistry) RemoveTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM push_tokens WHERE token = ANY($1)`, tokens); err != nil {
		return fmt.Errorf("failed to delete push tokens: %w", err)
	}
	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_push_token = NULL WHERE last_push_token = ANY($1)`, tokens); err != nil {
		return fmt.Errorf("failed to clear last push tokens: %w", err)
	}
	return nil
}
