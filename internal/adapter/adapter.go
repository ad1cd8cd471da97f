package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Descriptor 数据源连接描述
type Descriptor struct {
	Driver  string // sqlserver/mysql/postgres
	ConnStr string
	Schema  string // MySQL 需要指定库名
}

// DBAdapter 数据库适配器接口
type DBAdapter interface {
	// Snapshot 提取结构快照（表、列、主键、外键）
	Snapshot(ctx context.Context) (*SchemaSnapshot, error)

	// SampleRows 随机采样一个表的若干行
	SampleRows(ctx context.Context, table Table, n int) ([]RowSample, error)

	// StreamRows 全量读取一个表的行，逐行交给 sink
	StreamRows(ctx context.Context, table Table, sink RowSink) error

	// ListDatabases 列出可用数据库
	ListDatabases(ctx context.Context) ([]string, error)

	// Close 关闭连接
	Close() error
}

// RowSink 接收导出行
type RowSink interface {
	Header(columns []string) error
	Row(values []sql.NullString) error
}

// SchemaSnapshot 结构快照
type SchemaSnapshot struct {
	Database    string       `json:"database"`
	Tables      []Table      `json:"tables"`
	ForeignKeys []ForeignKey `json:"foreignKeys"`
}

// Table 表信息
type Table struct {
	Schema     string   `json:"schema"`
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	PrimaryKey string   `json:"primaryKey,omitempty"`
}

// FullName 全限定名
func (t Table) FullName() string {
	return t.Schema + "." + t.Name
}

// Column 列信息
type Column struct {
	Name         string `json:"name"`
	DataType     string `json:"dataType"`
	Length       int    `json:"length,omitempty"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
	IsForeignKey bool   `json:"isForeignKey"`
}

// ForeignKey 外键约束（单列，方向 From -> To）
type ForeignKey struct {
	ConstraintName string `json:"constraintName"`
	FromTable      string `json:"fromTable"`
	FromColumn     string `json:"fromColumn"`
	ToTable        string `json:"toTable"`
	ToColumn       string `json:"toColumn"`
}

// RowSample 一行样本，列名 -> 值（可能为 nil）
type RowSample map[string]any

// SampleDataset 表全名 -> 样本行
type SampleDataset map[string][]RowSample

// Open 按描述创建适配器，连接失败直接返回错误
func Open(d Descriptor, logger *zap.Logger) (DBAdapter, error) {
	switch d.Driver {
	case "sqlserver":
		return NewSQLServerAdapter(d.ConnStr, logger)
	case "mysql":
		if d.Schema == "" {
			return nil, fmt.Errorf("mysql 需要指定 schema")
		}
		return NewMySQLAdapter(d.ConnStr, d.Schema, logger)
	case "postgres":
		return NewPostgresAdapter(d.ConnStr, logger)
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", d.Driver)
	}
}

// Probe 连通性探测，永不报错，只返回是否成功和一条消息
func Probe(d Descriptor) (bool, string) {
	driver := d.Driver
	if driver == "postgres" {
		driver = "pgx"
	}

	db, err := sql.Open(driver, d.ConnStr)
	if err != nil {
		return false, fmt.Sprintf("连接失败: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Sprintf("连接失败: %v", err)
	}
	return true, "连接成功！"
}
