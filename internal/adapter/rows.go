package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// collectRows 把查询结果读成样本行，[]byte 统一转成 string
func collectRows(ctx context.Context, db *sql.DB, query string) ([]RowSample, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []RowSample
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		sample := make(RowSample, len(cols))
		for i, c := range cols {
			sample[c] = normalizeValue(vals[i])
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

// streamRows 全量读取查询结果，先给表头再逐行给 sink
func streamRows(ctx context.Context, db *sql.DB, query string, sink RowSink) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if err := sink.Header(cols); err != nil {
		return err
	}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		record := make([]sql.NullString, len(cols))
		for i := range vals {
			record[i] = toNullString(vals[i])
		}
		if err := sink.Row(record); err != nil {
			return err
		}
	}
	return rows.Err()
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}

// toNullString 驱动值转字符串，nil 保持 NULL
func toNullString(v any) sql.NullString {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}
	case []byte:
		return sql.NullString{String: string(x), Valid: true}
	case string:
		return sql.NullString{String: x, Valid: true}
	case time.Time:
		return sql.NullString{String: x.Format("2006-01-02 15:04:05"), Valid: true}
	default:
		return sql.NullString{String: fmt.Sprintf("%v", x), Valid: true}
	}
}
