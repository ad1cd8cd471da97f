package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func usersOrdersSnapshot() *SchemaSnapshot {
	return &SchemaSnapshot{
		Database: "shop",
		Tables: []Table{
			{
				Schema: "dbo", Name: "Orders", PrimaryKey: "id",
				Columns: []Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "user_id", DataType: "int"},
					{Name: "amount", DataType: "decimal"},
				},
			},
			{
				Schema: "dbo", Name: "Users", PrimaryKey: "id",
				Columns: []Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "name", DataType: "nvarchar", Length: 100},
				},
			},
		},
		ForeignKeys: []ForeignKey{
			{ConstraintName: "FK_Orders_Users", FromTable: "dbo.Orders", FromColumn: "user_id", ToTable: "dbo.Users", ToColumn: "id"},
		},
	}
}

func TestMarkForeignKeys(t *testing.T) {
	snap := usersOrdersSnapshot()
	markForeignKeys(snap, zap.NewNop())

	orders := snap.findTable("dbo.Orders")
	require.NotNil(t, orders)
	assert.True(t, orders.Columns[1].IsForeignKey, "Orders.user_id 应被标记为外键")
	assert.False(t, orders.Columns[0].IsForeignKey, "Orders.id 不应被标记")
	assert.False(t, orders.Columns[2].IsForeignKey, "Orders.amount 不应被标记")

	users := snap.findTable("dbo.Users")
	require.NotNil(t, users)
	for _, c := range users.Columns {
		assert.False(t, c.IsForeignKey)
	}
}

func TestMarkForeignKeysBareNameFallback(t *testing.T) {
	snap := usersOrdersSnapshot()
	// MySQL 风格的裸表名约束
	snap.ForeignKeys = []ForeignKey{
		{ConstraintName: "fk_orders_users", FromTable: "Orders", FromColumn: "user_id", ToTable: "Users", ToColumn: "id"},
	}
	markForeignKeys(snap, zap.NewNop())

	orders := snap.findTable("dbo.Orders")
	require.NotNil(t, orders)
	assert.True(t, orders.Columns[1].IsForeignKey)
}

func TestMarkForeignKeysMissingTargetDoesNotPanic(t *testing.T) {
	snap := usersOrdersSnapshot()
	snap.ForeignKeys = append(snap.ForeignKeys,
		ForeignKey{ConstraintName: "FK_ghost", FromTable: "dbo.Ghost", FromColumn: "x", ToTable: "dbo.Users", ToColumn: "id"},
		ForeignKey{ConstraintName: "FK_badcol", FromTable: "dbo.Orders", FromColumn: "no_such_column", ToTable: "dbo.Users", ToColumn: "id"},
	)
	markForeignKeys(snap, zap.NewNop())

	// 找不到的约束被忽略但保留在列表里
	assert.Len(t, snap.ForeignKeys, 3)
	assert.True(t, snap.findTable("dbo.Orders").Columns[1].IsForeignKey)
}

func TestEndToEndUsersOrders(t *testing.T) {
	snap := usersOrdersSnapshot()
	markForeignKeys(snap, zap.NewNop())

	users := snap.findTable("dbo.Users")
	orders := snap.findTable("dbo.Orders")
	require.NotNil(t, users)
	require.NotNil(t, orders)

	assert.True(t, users.Columns[0].IsPrimaryKey)
	assert.True(t, orders.Columns[0].IsPrimaryKey)
	assert.True(t, orders.Columns[1].IsForeignKey)

	require.Len(t, snap.ForeignKeys, 1)
	fk := snap.ForeignKeys[0]
	assert.Equal(t, "dbo.Orders", fk.FromTable)
	assert.Equal(t, "user_id", fk.FromColumn)
	assert.Equal(t, "dbo.Users", fk.ToTable)
	assert.Equal(t, "id", fk.ToColumn)
}

func TestFindTable(t *testing.T) {
	snap := usersOrdersSnapshot()

	tests := []struct {
		name    string
		lookup  string
		found   bool
		matched string
	}{
		{"全限定名", "dbo.Users", true, "Users"},
		{"裸表名", "Users", true, "Users"},
		{"其他 schema 限定名回退裸名", "sales.Orders", true, "Orders"},
		{"不存在", "dbo.Nothing", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.findTable(tt.lookup)
			if !tt.found {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.matched, got.Name)
		})
	}
}
