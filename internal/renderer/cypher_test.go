package renderer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-migrator/internal/adapter"
	"graph-migrator/internal/export"
	"graph-migrator/internal/graph"
)

func shopModel() *graph.GraphModel {
	return &graph.GraphModel{
		Nodes: []graph.NodeType{
			{
				Label: "User", SourceTable: "dbo.Users",
				Properties: []graph.PropertyMapping{
					{Column: "id", Property: "id", DataType: "int", IsKey: true},
					{Column: "name", Property: "name", DataType: "nvarchar"},
				},
			},
			{
				Label: "Order", SourceTable: "dbo.Orders",
				Properties: []graph.PropertyMapping{
					{Column: "id", Property: "id", DataType: "int", IsKey: true},
					{Column: "amount", Property: "amount", DataType: "decimal"},
				},
			},
		},
		Relationships: []graph.RelationshipType{
			{
				Type: "ORDER_USER", FromNode: "Order", ToNode: "User", SourceTable: "dbo.Orders",
				Properties: []graph.PropertyMapping{
					{Column: "user_id", Property: "userId", DataType: "int", IsKey: true},
				},
			},
		},
	}
}

func TestLoadScriptUsesArchiveEntryNames(t *testing.T) {
	script := NewCypherRenderer().RenderLoad(shopModel())

	// 导入脚本引用的文件名必须和导出归档的条目名一致
	for _, table := range []adapter.Table{
		{Schema: "dbo", Name: "Users"},
		{Schema: "dbo", Name: "Orders"},
	} {
		assert.Contains(t, script, "'file:///"+export.EntryName(table)+"'")
	}
}

func TestRenderSchema(t *testing.T) {
	script := NewCypherRenderer().RenderSchema(shopModel())

	assert.Contains(t, script, "CREATE CONSTRAINT user_id_key IF NOT EXISTS FOR (n:User) REQUIRE n.id IS UNIQUE;")
	assert.Contains(t, script, "CREATE CONSTRAINT order_id_key IF NOT EXISTS FOR (n:Order) REQUIRE n.id IS UNIQUE;")
}

func TestRenderSchemaNoKey(t *testing.T) {
	g := &graph.GraphModel{Nodes: []graph.NodeType{
		{Label: "Log", SourceTable: "dbo.Logs", Properties: []graph.PropertyMapping{
			{Column: "message", Property: "message", DataType: "text"},
		}},
	}}
	script := NewCypherRenderer().RenderSchema(g)

	assert.NotContains(t, script, "CREATE CONSTRAINT")
	assert.Contains(t, script, "// 节点 Log 没有键属性")
}

func TestRenderLoad(t *testing.T) {
	script := NewCypherRenderer().RenderLoad(shopModel())

	assert.Contains(t, script, "LOAD CSV WITH HEADERS FROM 'file:///dbo_Users.csv' AS row")
	assert.Contains(t, script, "CREATE (n:User {id: row.`id`, name: row.`name`});")
	assert.Contains(t, script, "CREATE (n:Order {id: row.`id`, amount: row.`amount`});")

	// 外键关系：起点按自身键列匹配，终点按关系键列匹配
	assert.Contains(t, script, "MATCH (a:Order {id: row.`id`})")
	assert.Contains(t, script, "MATCH (b:User {id: row.`user_id`})")
	assert.Contains(t, script, "MERGE (a)-[:ORDER_USER]->(b);")
}

func TestRenderLoadJoinTable(t *testing.T) {
	g := shopModel()
	g.Nodes = append(g.Nodes, graph.NodeType{
		Label: "Role", SourceTable: "dbo.Roles",
		Properties: []graph.PropertyMapping{
			{Column: "id", Property: "id", DataType: "int", IsKey: true},
		},
	})
	g.Relationships = []graph.RelationshipType{
		{
			Type: "USER_ROLE", FromNode: "User", ToNode: "Role",
			SourceTable: "dbo.UserRoles", JoinTable: true,
			Properties: []graph.PropertyMapping{
				{Column: "user_id", Property: "userId", DataType: "int", IsKey: true},
				{Column: "role_id", Property: "roleId", DataType: "int", IsKey: true},
				{Column: "granted_at", Property: "grantedAt", DataType: "datetime"},
			},
		},
	}

	script := NewCypherRenderer().RenderLoad(g)

	assert.Contains(t, script, "LOAD CSV WITH HEADERS FROM 'file:///dbo_UserRoles.csv' AS row")
	assert.Contains(t, script, "MATCH (a:User {id: row.`user_id`})")
	assert.Contains(t, script, "MATCH (b:Role {id: row.`role_id`})")
	assert.Contains(t, script, "MERGE (a)-[r:USER_ROLE]->(b) SET r.grantedAt = row.`granted_at`;")
}

func TestRenderLoadSkipsUnresolvableRelationship(t *testing.T) {
	g := shopModel()
	g.Relationships = append(g.Relationships, graph.RelationshipType{
		Type: "ORDER_GHOST", FromNode: "Order", ToNode: "Ghost", SourceTable: "dbo.Orders",
	})

	script := NewCypherRenderer().RenderLoad(g)
	assert.Contains(t, script, "// 关系 ORDER_GHOST 缺少键信息，跳过")
	// 可解析的关系不受影响
	assert.Contains(t, script, "MERGE (a)-[:ORDER_USER]->(b);")
}

func TestRenderReport(t *testing.T) {
	report := NewReportRenderer().Render(shopModel(), "外键驱动建模")

	assert.True(t, strings.HasPrefix(report, "# 图模型映射报告"))
	assert.Contains(t, report, "节点类型 2 个，关系类型 1 个")
	assert.Contains(t, report, "| User | dbo.Users | 2 |")
	assert.Contains(t, report, "| ORDER_USER | Order | User | dbo.Orders |")
	assert.Contains(t, report, "## 建模思路")
	assert.Contains(t, report, "外键驱动建模")

	empty := NewReportRenderer().Render(&graph.GraphModel{}, "")
	require.NotContains(t, empty, "## 关系")
	require.NotContains(t, empty, "## 建模思路")
}
