package export

import (
	"archive/zip"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"graph-migrator/internal/adapter"
)

// EntryNameFor 来源表全名对应的归档条目名。
// 生成的导入脚本按同一条约定引用数据文件
func EntryNameFor(sourceTable string) string {
	return strings.ReplaceAll(sourceTable, ".", "_") + ".csv"
}

// EntryName 表对应的归档条目名
func EntryName(t adapter.Table) string {
	return EntryNameFor(t.FullName())
}

// WriteArchive 把所有表导出成一个 zip，一表一个 CSV 条目。
// 单表失败（查询出错、类型转换失败）记日志并保留空/部分条目，
// 继续处理剩余的表，绝不因一个表中断整个归档。
func WriteArchive(ctx context.Context, a adapter.DBAdapter, tables []adapter.Table, w io.Writer, logger *zap.Logger) error {
	zw := zip.NewWriter(w)

	for _, t := range tables {
		entry, err := zw.Create(EntryName(t))
		if err != nil {
			zw.Close()
			return err
		}
		if err := a.StreamRows(ctx, t, &csvSink{w: entry}); err != nil {
			logger.Warn("导出表失败，保留已写入部分",
				zap.String("table", t.FullName()),
				zap.Error(err))
			continue
		}
	}
	return zw.Close()
}
