package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLAdapter MySQL 适配器
type MySQLAdapter struct {
	db     *sql.DB
	schema string
	logger *zap.Logger
}

// NewMySQLAdapter 创建 MySQL 适配器
func NewMySQLAdapter(connStr, schema string, logger *zap.Logger) (*MySQLAdapter, error) {
	db, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLAdapter{db: db, schema: schema, logger: logger.Named("adapter.mysql")}, nil
}

// Snapshot 提取结构快照
func (a *MySQLAdapter) Snapshot(ctx context.Context) (*SchemaSnapshot, error) {
	snap := &SchemaSnapshot{Database: a.schema}

	tables, err := a.getTables(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		columns, pk, err := a.getColumns(ctx, tables[i].Name)
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

func (a *MySQLAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		t.Schema = a.schema
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (a *MySQLAdapter) getColumns(ctx context.Context, table string) ([]Column, string, error) {
	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, 0),
			IS_NULLABLE = 'YES',
			COLUMN_KEY = 'PRI'
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema, table)
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

func (a *MySQLAdapter) getForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	query := `
		SELECT
			CONSTRAINT_NAME,
			TABLE_NAME,
			COLUMN_NAME,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var fromTable, toTable string
		if err := rows.Scan(&fk.ConstraintName, &fromTable, &fk.FromColumn, &toTable, &fk.ToColumn); err != nil {
			return nil, err
		}
		fk.FromTable = a.schema + "." + fromTable
		fk.ToTable = a.schema + "." + toTable
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// SampleRows 随机采样
func (a *MySQLAdapter) SampleRows(ctx context.Context, table Table, n int) ([]RowSample, error) {
	query := fmt.Sprintf("SELECT * FROM `%s`.`%s` ORDER BY RAND() LIMIT %d", table.Schema, table.Name, n)
	return collectRows(ctx, a.db, query)
}

// StreamRows 全量读取表行
func (a *MySQLAdapter) StreamRows(ctx context.Context, table Table, sink RowSink) error {
	query := fmt.Sprintf("SELECT * FROM `%s`.`%s`", table.Schema, table.Name)
	return streamRows(ctx, a.db, query, sink)
}

// ListDatabases 列出业务数据库
func (a *MySQLAdapter) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	system := map[string]bool{
		"information_schema": true, "mysql": true,
		"performance_schema": true, "sys": true,
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if system[name] {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close 关闭连接
func (a *MySQLAdapter) Close() error {
	return a.db.Close()
}
