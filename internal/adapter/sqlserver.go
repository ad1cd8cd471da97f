package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	"go.uber.org/zap"
)

// SQLServerAdapter SQL Server 适配器
type SQLServerAdapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLServerAdapter 创建 SQL Server 适配器
func NewSQLServerAdapter(connStr string, logger *zap.Logger) (*SQLServerAdapter, error) {
	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLServerAdapter{db: db, logger: logger.Named("adapter.sqlserver")}, nil
}

// Snapshot 提取结构快照
func (a *SQLServerAdapter) Snapshot(ctx context.Context) (*SchemaSnapshot, error) {
	snap := &SchemaSnapshot{}

	if err := a.db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&snap.Database); err != nil {
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

func (a *SQLServerAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME
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

func (a *SQLServerAdapter) getColumns(ctx context.Context, schema, table string) ([]Column, string, error) {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0) as LENGTH,
			CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END as NULLABLE,
			CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END as IS_PK
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
				ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		) pk ON c.TABLE_SCHEMA = pk.TABLE_SCHEMA
			AND c.TABLE_NAME = pk.TABLE_NAME
			AND c.COLUMN_NAME = pk.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
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
		var nullable, isPK int
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &nullable, &isPK); err != nil {
			return nil, "", err
		}
		c.Nullable = nullable == 1
		c.IsPrimaryKey = isPK == 1
		if c.IsPrimaryKey {
			// 复合主键时后出现的列覆盖前面的（单列主键模型的已知退化）
			primaryKey = c.Name
		}
		columns = append(columns, c)
	}
	return columns, primaryKey, rows.Err()
}

func (a *SQLServerAdapter) getForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	query := `
		SELECT
			fk.name as constraint_name,
			SCHEMA_NAME(pt.schema_id) + '.' + pt.name as from_table,
			COL_NAME(fkc.parent_object_id, fkc.parent_column_id) as from_column,
			SCHEMA_NAME(rt.schema_id) + '.' + rt.name as to_table,
			COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) as to_column
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables pt ON fk.parent_object_id = pt.object_id
		JOIN sys.tables rt ON fk.referenced_object_id = rt.object_id
		ORDER BY fk.name
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

// SampleRows 随机采样。TABLESAMPLE 粒度粗，先超采再由上层截断
func (a *SQLServerAdapter) SampleRows(ctx context.Context, table Table, n int) ([]RowSample, error) {
	query := fmt.Sprintf(`SELECT TOP (%d) * FROM [%s].[%s] TABLESAMPLE (%d ROWS)`,
		n, table.Schema, table.Name, n*20)
	rows, err := collectRows(ctx, a.db, query)
	if err != nil {
		return nil, err
	}
	if len(rows) < n {
		// 小表可能采不满，退回普通 TOP
		return collectRows(ctx, a.db, fmt.Sprintf(`SELECT TOP (%d) * FROM [%s].[%s]`, n, table.Schema, table.Name))
	}
	return rows, nil
}

// StreamRows 全量读取表行
func (a *SQLServerAdapter) StreamRows(ctx context.Context, table Table, sink RowSink) error {
	query := fmt.Sprintf(`SELECT * FROM [%s].[%s]`, table.Schema, table.Name)
	return streamRows(ctx, a.db, query, sink)
}

// ListDatabases 列出用户数据库
func (a *SQLServerAdapter) ListDatabases(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM sys.databases WHERE name NOT IN ('master', 'tempdb', 'model', 'msdb') ORDER BY name`
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
func (a *SQLServerAdapter) Close() error {
	return a.db.Close()
}
