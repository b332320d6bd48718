// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

package occurrence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/auditrail/internal/logging"
)

const (
	// maxInListSize bounds the ids bound into a single IN (...) list.
	maxInListSize = 500

	// upsertChunkSize bounds the rows in a single multi-row upsert.
	upsertChunkSize = 200

	// metadataChunkSize bounds the rows in a single multi-row metadata insert.
	metadataChunkSize = 500
)

const occurrenceColumns = "id, site_id, alert_id, created_on, client_ip, severity, object, event_type, " +
	"user_agent, user_roles, username, user_id, session_id, post_status, post_type, post_id"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// TableNames are the physical table names of the two logical tables.
type TableNames struct {
	Occurrences string
	Metadata    string
}

// DefaultTableNames returns the live-store table names.
func DefaultTableNames() TableNames {
	return TableNames{Occurrences: "occurrences", Metadata: "metadata"}
}

// ArchiveTableNames returns the table names used by archive stores.
func ArchiveTableNames() TableNames {
	return TableNames{Occurrences: "occurrences_archive", Metadata: "metadata_archive"}
}

func (t TableNames) name(table Table) string {
	if table == TableMetadata {
		return t.Metadata
	}
	return t.Occurrences
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store and Transactor over database/sql.
type SQLStore struct {
	db      *sql.DB // nil when bound to a transaction
	q       queryer
	dialect Dialect
	tables  TableNames
}

// NewSQLStore creates a store over db. The tables are not created; call
// EnsureSchema or rely on the SchemaMissingError signal.
func NewSQLStore(db *sql.DB, dialect Dialect, tables TableNames) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("database handle cannot be nil")
	}
	if _, err := ParseDialect(string(dialect)); err != nil {
		return nil, err
	}
	for _, name := range []string{tables.Occurrences, tables.Metadata} {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	if tables.Occurrences == tables.Metadata {
		return nil, fmt.Errorf("occurrence and metadata tables must differ, both are %q", tables.Occurrences)
	}
	return &SQLStore{db: db, q: db, dialect: dialect, tables: tables}, nil
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Tables returns the store's physical table names.
func (s *SQLStore) Tables() TableNames { return s.tables }

// classify turns driver errors into the package's typed errors.
func (s *SQLStore) classify(op string, table Table, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if s.dialect.missingTable(err) {
		return &SchemaMissingError{Table: table, Err: err}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) || s.dialect.unreachable(err) {
		return Unavailable("failed to "+op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// WithTx implements Transactor. Nested calls reuse the open transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.classify("begin transaction", TableOccurrences, err)
	}

	txStore := &SQLStore{q: tx, dialect: s.dialect, tables: s.tables}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Warn().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.classify("commit transaction", TableOccurrences, err)
	}
	return nil
}

// InsertOccurrence implements Store.
func (s *SQLStore) InsertOccurrence(ctx context.Context, o *Occurrence) error {
	if o == nil {
		return errors.New("occurrence cannot be nil")
	}

	args := occurrenceArgs(o)
	cols := occurrenceColumns
	if o.ID == 0 {
		cols = strings.TrimPrefix(occurrenceColumns, "id, ")
		args = args[1:]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		s.tables.Occurrences, cols, placeholders(len(args)))

	var id int64
	if err := s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&id); err != nil {
		return s.classify("insert occurrence", TableOccurrences, err)
	}
	o.ID = id
	return nil
}

// UpsertOccurrences implements Store.
func (s *SQLStore) UpsertOccurrences(ctx context.Context, list []Occurrence) error {
	for start := 0; start < len(list); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(list))
		chunk := list[start:end]

		rows := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*16)
		for i := range chunk {
			if chunk[i].ID == 0 {
				return fmt.Errorf("failed to upsert occurrences: occurrence at index %d has no id", start+i)
			}
			rows[i] = "(" + placeholders(16) + ")"
			args = append(args, occurrenceArgs(&chunk[i])...)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s %s",
			s.tables.Occurrences, occurrenceColumns, strings.Join(rows, ", "), upsertClause())
		if _, err := s.q.ExecContext(ctx, s.dialect.rebind(query), args...); err != nil {
			return s.classify("upsert occurrences", TableOccurrences, err)
		}
	}
	return nil
}

// upsertClause replaces every non-key column on id conflict. The form is
// accepted by DuckDB, SQLite and PostgreSQL alike.
func upsertClause() string {
	cols := strings.Split(occurrenceColumns, ", ")[1:]
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = EXCLUDED." + c
	}
	return "ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
}

// InsertMetadata implements Store.
func (s *SQLStore) InsertMetadata(ctx context.Context, rows []Metadata) error {
	for start := 0; start < len(rows); start += metadataChunkSize {
		end := min(start+metadataChunkSize, len(rows))
		chunk := rows[start:end]

		values := make([]string, len(chunk))
		args := make([]any, 0, len(chunk)*3)
		for i := range chunk {
			encoded, err := EncodeValue(chunk[i].Value)
			if err != nil {
				return fmt.Errorf("failed to insert metadata %q: %w", chunk[i].Name, err)
			}
			values[i] = "(?, ?, ?)"
			args = append(args, chunk[i].OccurrenceID, chunk[i].Name, encoded)
		}

		query := fmt.Sprintf("INSERT INTO %s (occurrence_id, name, value) VALUES %s",
			s.tables.Metadata, strings.Join(values, ", "))
		if _, err := s.q.ExecContext(ctx, s.dialect.rebind(query), args...); err != nil {
			return s.classify("insert metadata", TableMetadata, err)
		}
	}
	return nil
}

// SelectOccurrences implements Store.
func (s *SQLStore) SelectOccurrences(ctx context.Context, filter Filter) ([]Occurrence, error) {
	if len(filter.IDs) <= maxInListSize {
		return s.selectOccurrences(ctx, filter)
	}

	// Too many ids for one IN list: fetch per chunk, then order and page.
	paged := filter
	paged.Limit, paged.Offset = 0, 0
	var all []Occurrence
	for _, chunk := range chunkIDs(filter.IDs) {
		paged.IDs = chunk
		list, err := s.selectOccurrences(ctx, paged)
		if err != nil {
			return nil, err
		}
		all = append(all, list...)
	}
	return filter.SortAndPage(all), nil
}

func (s *SQLStore) selectOccurrences(ctx context.Context, filter Filter) ([]Occurrence, error) {
	where, args := buildFilterConditions(filter)
	query := "SELECT " + occurrenceColumns + " FROM " + s.tables.Occurrences + where
	query += s.dialect.orderAndLimit(filter)

	rows, err := s.q.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, s.classify("select occurrences", TableOccurrences, err)
	}
	defer rows.Close()

	var out []Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("iterate occurrences", TableOccurrences, err)
	}
	return out, nil
}

// CountOccurrences implements Store.
func (s *SQLStore) CountOccurrences(ctx context.Context, filter Filter) (int64, error) {
	chunks := [][]int64{filter.IDs}
	if len(filter.IDs) > maxInListSize {
		chunks = chunkIDs(filter.IDs)
	}

	var total int64
	for _, chunk := range chunks {
		f := filter
		f.IDs = chunk
		where, args := buildFilterConditions(f)
		query := "SELECT COUNT(*) FROM " + s.tables.Occurrences + where

		var n int64
		if err := s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&n); err != nil {
			return 0, s.classify("count occurrences", TableOccurrences, err)
		}
		total += n
	}
	return total, nil
}

// SelectMetadata implements Store.
func (s *SQLStore) SelectMetadata(ctx context.Context, occurrenceIDs []int64) ([]Metadata, error) {
	var out []Metadata
	for _, chunk := range chunkIDs(occurrenceIDs) {
		var args []any
		cond := buildInCondition("occurrence_id", chunk, &args)
		query := fmt.Sprintf("SELECT occurrence_id, name, value FROM %s WHERE %s", s.tables.Metadata, cond)

		rows, err := s.q.QueryContext(ctx, s.dialect.rebind(query), args...)
		if err != nil {
			return nil, s.classify("select metadata", TableMetadata, err)
		}
		out, err = scanMetadataRows(rows, out)
		if err != nil {
			return nil, s.classify("select metadata", TableMetadata, err)
		}
	}
	return out, nil
}

func scanMetadataRows(rows *sql.Rows, out []Metadata) ([]Metadata, error) {
	defer rows.Close()
	for rows.Next() {
		var m Metadata
		var value sql.NullString
		if err := rows.Scan(&m.OccurrenceID, &m.Name, &value); err != nil {
			return nil, err
		}
		if value.Valid {
			m.Value = DecodeValue(value.String)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMetadata implements Store.
func (s *SQLStore) CountMetadata(ctx context.Context, occurrenceIDs []int64) (int64, error) {
	var total int64
	for _, chunk := range chunkIDs(occurrenceIDs) {
		var args []any
		cond := buildInCondition("occurrence_id", chunk, &args)
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", s.tables.Metadata, cond)

		var n int64
		if err := s.q.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&n); err != nil {
			return 0, s.classify("count metadata", TableMetadata, err)
		}
		total += n
	}
	return total, nil
}

// DeleteMetadata implements Store.
func (s *SQLStore) DeleteMetadata(ctx context.Context, occurrenceIDs []int64) (int64, error) {
	return s.deleteByIDs(ctx, TableMetadata, "occurrence_id", occurrenceIDs)
}

// DeleteOccurrences implements Store.
func (s *SQLStore) DeleteOccurrences(ctx context.Context, ids []int64) (int64, error) {
	return s.deleteByIDs(ctx, TableOccurrences, "id", ids)
}

func (s *SQLStore) deleteByIDs(ctx context.Context, table Table, column string, ids []int64) (int64, error) {
	var total int64
	for _, chunk := range chunkIDs(ids) {
		var args []any
		cond := buildInCondition(column, chunk, &args)
		query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.tables.name(table), cond)

		result, err := s.q.ExecContext(ctx, s.dialect.rebind(query), args...)
		if err != nil {
			return total, s.classify("delete from "+string(table), table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get deleted count: %w", err)
		}
		total += n
	}
	return total, nil
}

// TableExists implements Store.
func (s *SQLStore) TableExists(ctx context.Context, table Table) (bool, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, s.dialect.tableExistsQuery(), s.tables.name(table)).Scan(&n); err != nil {
		return false, s.classify("check table "+string(table), table, err)
	}
	return n > 0, nil
}

// CreateTable implements Store.
func (s *SQLStore) CreateTable(ctx context.Context, table Table) error {
	name := s.tables.name(table)
	statements := s.dialect.occurrenceSchema(name)
	if table == TableMetadata {
		statements = s.dialect.metadataSchema(name)
	}

	for _, stmt := range statements {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return s.classify("execute schema statement for "+name, table, err)
		}
	}

	logging.Debug().Str("table", name).Str("dialect", string(s.dialect)).Msg("Table created/verified")
	return nil
}

// buildFilterConditions returns a WHERE clause (with leading space) and args.
func buildFilterConditions(filter Filter) (string, []any) {
	var conditions []string
	var args []any

	if filter.SiteID != nil {
		conditions = append(conditions, "site_id = ?")
		args = append(args, *filter.SiteID)
	}
	if cond := buildInCondition("alert_id", filter.AlertIDs, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := buildInCondition("id", filter.IDs, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if filter.CreatedAfter != nil {
		conditions = append(conditions, "created_on >= ?")
		args = append(args, *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		conditions = append(conditions, "created_on < ?")
		args = append(args, *filter.CreatedBefore)
	}
	if filter.Username != "" {
		conditions = append(conditions, "username = ?")
		args = append(args, filter.Username)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (d Dialect) orderAndLimit(filter Filter) string {
	dir := "ASC"
	if filter.OrderDesc {
		dir = "DESC"
	}
	clause := fmt.Sprintf(" ORDER BY created_on %s, id %s", dir, dir)
	if filter.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 && d == SQLite {
			// SQLite requires LIMIT before OFFSET.
			clause += " LIMIT -1"
		}
		clause += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}
	return clause
}

// buildInCondition creates a SQL IN condition for a slice of integer values.
func buildInCondition[T int | int64](column string, values []T, args *[]any) string {
	if len(values) == 0 {
		return ""
	}
	for _, v := range values {
		*args = append(*args, v)
	}
	return fmt.Sprintf("%s IN (%s)", column, placeholders(len(values)))
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func chunkIDs(ids []int64) [][]int64 {
	var chunks [][]int64
	for start := 0; start < len(ids); start += maxInListSize {
		chunks = append(chunks, ids[start:min(start+maxInListSize, len(ids))])
	}
	return chunks
}

func occurrenceArgs(o *Occurrence) []any {
	return []any{
		o.ID,
		o.SiteID,
		o.AlertID,
		o.CreatedOn,
		nullString(o.ClientIP),
		o.Severity,
		nullString(o.Object),
		nullString(o.EventType),
		nullString(o.UserAgent),
		marshalRoles(o.UserRoles),
		nullString(o.Username),
		nullInt(o.UserID),
		nullString(o.SessionID),
		nullString(o.PostStatus),
		nullString(o.PostType),
		nullInt(o.PostID),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOccurrence(row rowScanner) (Occurrence, error) {
	var o Occurrence
	var clientIP, object, eventType, userAgent, roles, username, sessionID, postStatus, postType sql.NullString
	var userID, postID sql.NullInt64

	err := row.Scan(
		&o.ID, &o.SiteID, &o.AlertID, &o.CreatedOn, &clientIP, &o.Severity,
		&object, &eventType, &userAgent, &roles, &username, &userID,
		&sessionID, &postStatus, &postType, &postID,
	)
	if err != nil {
		return o, err
	}

	o.ClientIP = clientIP.String
	o.Object = object.String
	o.EventType = eventType.String
	o.UserAgent = userAgent.String
	o.UserRoles = unmarshalRoles(roles.String)
	o.Username = username.String
	o.UserID = userID.Int64
	o.SessionID = sessionID.String
	o.PostStatus = postStatus.String
	o.PostType = postType.String
	o.PostID = postID.Int64
	return o, nil
}

func marshalRoles(roles []string) any {
	if len(roles) == 0 {
		return nil
	}
	data, err := json.Marshal(roles)
	if err != nil {
		return nil
	}
	return string(data)
}

// unmarshalRoles accepts a JSON array or a legacy comma separated list.
func unmarshalRoles(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var roles []string
	if err := json.Unmarshal([]byte(text), &roles); err == nil {
		return roles
	}
	for _, r := range strings.Split(text, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return roles
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(i int64) any {
	if i == 0 {
		return nil
	}
	return i
}
