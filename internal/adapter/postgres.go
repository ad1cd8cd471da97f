package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PostgresAdapter PostgreSQL 适配器（pgx stdlib 驱动）
type PostgresAdapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresAdapter 创建 PostgreSQL 适配器
func NewPostgresAdapter(connStr string, logger *zap.Logger) (*PostgresAdapter, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresAdapter{db: db, logger: logger.Named("adapter.postgres")}, nil
}

// Snapshot 提取结构快照
func (a *PostgresAdapter) Snapshot(ctx context.Context) (*SchemaSnapshot, error) {
	snap := &SchemaSnapshot{}

	if err := a.db.QueryRowContext(ctx, "SELECT current_database()").Scan(&snap.Database); err != nil {
		return nil, err
	}

	tables, err := a.getTables(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		columns, pk, err := a.getColumns(ctx, tables[i].Schema, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = columns
		tables[i].PrimaryKey = pk
	}
	snap.Tables = tables

	fks, err := a.getForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	snap.ForeignKeys = fks

	markForeignKeys(snap, a.logger)
	return snap, nil
}

func (a *PostgresAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
			AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (a *PostgresAdapter) getColumns(ctx context.Context, schema, table string) ([]Column, string, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			COALESCE(c.character_maximum_length, 0),
			c.is_nullable = 'YES',
			pk.column_name IS NOT NULL
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT ku.table_schema, ku.table_name, ku.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage ku
				ON tc.constraint_name = ku.constraint_name
				AND tc.table_schema = ku.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
		) pk ON c.table_schema = pk.table_schema
			AND c.table_name = pk.table_name
			AND c.column_name = pk.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`
	rows, err := a.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var columns []Column
	var primaryKey string
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &c.Nullable, &c.IsPrimaryKey); err != nil {
			return nil, "", err
		}
		if c.IsPrimaryKey {
			primaryKey = c.Name
		}
		columns = append(columns, c)
	}
	return columns, primaryKey, rows.Err()
}

func (a *PostgresAdapter) getForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	query := `
		SELECT
			tc.constraint_name,
			tc.table_schema || '.' || tc.table_name,
			kcu.column_name,
			ccu.table_schema || '.' || ccu.table_name,
			ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.constraint_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.constraint_name
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.FromTable, &fk.FromColumn, &fk.ToTable, &fk.ToColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// TABLESAMPLE SYSTEM 的采样百分比，按页取样粒度粗，先超采再由上层截断
const postgresSamplePercent = 10

func postgresSampleQuery(table Table, n int) string {
	return fmt.Sprintf(`SELECT * FROM %q.%q TABLESAMPLE SYSTEM (%d) LIMIT %d`,
		table.Schema, table.Name, postgresSamplePercent, n)
}

func postgresSampleFallbackQuery(table Table, n int) string {
	return fmt.Sprintf(`SELECT * FROM %q.%q LIMIT %d`, table.Schema, table.Name, n)
}

// SampleRows 随机采样。TABLESAMPLE 避免全表扫描排序
func (a *PostgresAdapter) SampleRows(ctx context.Context, table Table, n int) ([]RowSample, error) {
	rows, err := collectRows(ctx, a.db, postgresSampleQuery(table, n))
	if err != nil {
		return nil, err
	}
	if len(rows) < n {
		// 小表可能采不满，退回普通 LIMIT
		return collectRows(ctx, a.db, postgresSampleFallbackQuery(table, n))
	}
	return rows, nil
}

// StreamRows 全量读取表行
func (a *PostgresAdapter) StreamRows(ctx context.Context, table Table, sink RowSink) error {
	query := fmt.Sprintf(`SELECT * FROM %q.%q`, table.Schema, table.Name)
	return streamRows(ctx, a.db, query, sink)
}

// ListDatabases 列出业务数据库
func (a *PostgresAdapter) ListDatabases(ctx context.Context) ([]string, error) {
	query := `SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close 关闭连接
func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}
