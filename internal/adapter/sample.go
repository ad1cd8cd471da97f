package adapter

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSampleSize 默认每表样本行数
	DefaultSampleSize = 5

	// 单表采样查询超时
	sampleTimeout = 10 * time.Second

	// 长字符串截断边界（rune 数），控制下游请求体大小
	maxFieldRunes = 100
)

// SampleTables 逐表采样。单表失败（超时、表不存在、类型错误）
// 只记警告并落一个空样本，绝不中断整个批次。
func SampleTables(ctx context.Context, a DBAdapter, tables []Table, n int, logger *zap.Logger) SampleDataset {
	if n <= 0 {
		n = DefaultSampleSize
	}

	out := make(SampleDataset, len(tables))
	for _, t := range tables {
		tctx, cancel := context.WithTimeout(ctx, sampleTimeout)
		rows, err := a.SampleRows(tctx, t, n)
		cancel()

		if err != nil {
			logger.Warn("采样失败，记为空样本",
				zap.String("table", t.FullName()),
				zap.Error(err))
			out[t.FullName()] = []RowSample{}
			continue
		}

		if len(rows) > n {
			rows = rows[:n]
		}
		for _, row := range rows {
			for k, v := range row {
				row[k] = truncateValue(v)
			}
		}
		out[t.FullName()] = rows
	}
	return out
}

func truncateValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	rs := []rune(s)
	if len(rs) <= maxFieldRunes {
		return v
	}
	return string(rs[:maxFieldRunes]) + "..."
}
