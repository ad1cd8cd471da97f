package export

import (
	"database/sql"
	"io"
	"strings"
)

// EscapeField 字段转义：只在含逗号、引号或换行时加引号，
// 内部引号翻倍，其余原样输出
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\",\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvSink 把导出行写成 CSV 文本（无 BOM，每行 \n 结尾）。
// NULL 输出为空字段，不是字面 "null"。
type csvSink struct {
	w io.Writer
}

func (s *csvSink) Header(columns []string) error {
	return s.writeRecord(columns)
}

func (s *csvSink) Row(values []sql.NullString) error {
	fields := make([]string, len(values))
	for i, v := range values {
		if v.Valid {
			fields[i] = v.String
		}
	}
	return s.writeRecord(fields)
}

func (s *csvSink) writeRecord(fields []string) error {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeField(f)
	}
	_, err := io.WriteString(s.w, strings.Join(escaped, ",")+"\n")
	return err
}
