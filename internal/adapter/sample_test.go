package adapter

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAdapter 测试用适配器：指定表采样报错，其余返回固定样本
type fakeAdapter struct {
	failTable string
	rows      map[string][]RowSample
}

func (f *fakeAdapter) Snapshot(ctx context.Context) (*SchemaSnapshot, error) { return nil, nil }

func (f *fakeAdapter) SampleRows(ctx context.Context, table Table, n int) ([]RowSample, error) {
	if table.Name == f.failTable {
		return nil, context.DeadlineExceeded
	}
	return f.rows[table.FullName()], nil
}

func (f *fakeAdapter) StreamRows(ctx context.Context, table Table, sink RowSink) error { return nil }
func (f *fakeAdapter) ListDatabases(ctx context.Context) ([]string, error)             { return nil, nil }
func (f *fakeAdapter) Close() error                                                    { return nil }

func TestSampleTablesFailureIsolation(t *testing.T) {
	tables := []Table{
		{Schema: "dbo", Name: "Users"},
		{Schema: "dbo", Name: "Broken"},
		{Schema: "dbo", Name: "Orders"},
	}
	fake := &fakeAdapter{
		failTable: "Broken",
		rows: map[string][]RowSample{
			"dbo.Users":  {{"id": int64(1), "name": "张三"}},
			"dbo.Orders": {{"id": int64(7), "amount": 99.5}},
		},
	}

	ds := SampleTables(context.Background(), fake, tables, 5, zap.NewNop())

	// 失败的表落空样本，后续表继续
	require.Contains(t, ds, "dbo.Broken")
	assert.Empty(t, ds["dbo.Broken"])
	assert.Len(t, ds["dbo.Users"], 1)
	assert.Len(t, ds["dbo.Orders"], 1)
}

func TestSampleTablesTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("甲", 150)
	fake := &fakeAdapter{
		rows: map[string][]RowSample{
			"dbo.Notes": {{"body": long, "short": "ok", "n": int64(3)}},
		},
	}

	ds := SampleTables(context.Background(), fake, []Table{{Schema: "dbo", Name: "Notes"}}, 5, zap.NewNop())

	row := ds["dbo.Notes"][0]
	body := row["body"].(string)
	assert.True(t, strings.HasSuffix(body, "..."))
	assert.Equal(t, 100, len([]rune(strings.TrimSuffix(body, "..."))))
	assert.Equal(t, "ok", row["short"])
	assert.Equal(t, int64(3), row["n"])
}

func TestSampleTablesTruncatesRowCount(t *testing.T) {
	var many []RowSample
	for i := 0; i < 20; i++ {
		many = append(many, RowSample{"id": int64(i)})
	}
	fake := &fakeAdapter{rows: map[string][]RowSample{"dbo.Big": many}}

	ds := SampleTables(context.Background(), fake, []Table{{Schema: "dbo", Name: "Big"}}, 0, zap.NewNop())

	// n<=0 回退默认值
	assert.Len(t, ds["dbo.Big"], DefaultSampleSize)
}

func TestTruncateValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{"short", "short"},
		{strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{strings.Repeat("a", 101), strings.Repeat("a", 100) + "..."},
		{int64(42), int64(42)},
		{nil, nil},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, tt.want, truncateValue(tt.in))
		})
	}
}
