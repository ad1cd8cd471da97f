package renderer

import (
	"fmt"
	"strings"

	"graph-migrator/internal/export"
	"graph-migrator/internal/graph"
)

// CypherRenderer 把图模型渲染成 Neo4j 迁移脚本。
// 供本地启发式策略使用；AI 路径的脚本由协作方直接生成。
type CypherRenderer struct{}

// NewCypherRenderer 创建渲染器
func NewCypherRenderer() *CypherRenderer {
	return &CypherRenderer{}
}

// RenderSchema 结构脚本：每个节点的键属性一条唯一约束
func (r *CypherRenderer) RenderSchema(g *graph.GraphModel) string {
	var sb strings.Builder

	for _, node := range g.Nodes {
		key := node.KeyProperty()
		if key == nil {
			fmt.Fprintf(&sb, "// 节点 %s 没有键属性，跳过约束\n", node.Label)
			continue
		}
		fmt.Fprintf(&sb, "CREATE CONSTRAINT %s_%s_key IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE;\n",
			strings.ToLower(node.Label), key.Property, node.Label, key.Property)
	}
	return sb.String()
}

// RenderLoad 导入脚本：节点先建，关系按键匹配后 MERGE
func (r *CypherRenderer) RenderLoad(g *graph.GraphModel) string {
	var sb strings.Builder

	for _, node := range g.Nodes {
		fmt.Fprintf(&sb, "LOAD CSV WITH HEADERS FROM 'file:///%s' AS row\n", export.EntryNameFor(node.SourceTable))
		var assigns []string
		for _, p := range node.Properties {
			assigns = append(assigns, fmt.Sprintf("%s: row.`%s`", p.Property, p.Column))
		}
		fmt.Fprintf(&sb, "CREATE (n:%s {%s});\n\n", node.Label, strings.Join(assigns, ", "))
	}

	for _, rel := range g.Relationships {
		stmt, ok := r.renderRelationship(g, rel)
		if !ok {
			fmt.Fprintf(&sb, "// 关系 %s 缺少键信息，跳过\n\n", rel.Type)
			continue
		}
		sb.WriteString(stmt + "\n")
	}
	return sb.String()
}

func (r *CypherRenderer) renderRelationship(g *graph.GraphModel, rel graph.RelationshipType) (string, bool) {
	from := g.FindNode(rel.FromNode)
	to := g.FindNode(rel.ToNode)
	if from == nil || to == nil {
		return "", false
	}
	fromKey := from.KeyProperty()
	toKey := to.KeyProperty()
	if fromKey == nil || toKey == nil {
		return "", false
	}

	var keyCols []string
	for _, p := range rel.Properties {
		if p.IsKey {
			keyCols = append(keyCols, p.Column)
		}
	}

	// 连接表：两个键列分别指向两端；普通外键：起点按自身键列匹配
	var fromCol, toCol string
	if rel.JoinTable {
		if len(keyCols) < 2 {
			return "", false
		}
		fromCol, toCol = keyCols[0], keyCols[1]
	} else {
		if len(keyCols) < 1 {
			return "", false
		}
		fromCol, toCol = fromKey.Column, keyCols[0]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "LOAD CSV WITH HEADERS FROM 'file:///%s' AS row\n", export.EntryNameFor(rel.SourceTable))
	fmt.Fprintf(&sb, "MATCH (a:%s {%s: row.`%s`})\n", from.Label, fromKey.Property, fromCol)
	fmt.Fprintf(&sb, "MATCH (b:%s {%s: row.`%s`})\n", to.Label, toKey.Property, toCol)

	var extras []string
	for _, p := range rel.Properties {
		if !p.IsKey {
			extras = append(extras, fmt.Sprintf("r.%s = row.`%s`", p.Property, p.Column))
		}
	}
	if len(extras) > 0 {
		fmt.Fprintf(&sb, "MERGE (a)-[r:%s]->(b) SET %s;\n", rel.Type, strings.Join(extras, ", "))
	} else {
		fmt.Fprintf(&sb, "MERGE (a)-[:%s]->(b);\n", rel.Type)
	}
	return sb.String(), true
}
