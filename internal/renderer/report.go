package renderer

import (
	"fmt"
	"strings"

	"graph-migrator/internal/graph"
)

// ReportRenderer 映射结果的 Markdown 报告渲染器
type ReportRenderer struct{}

// NewReportRenderer 创建渲染器
func NewReportRenderer() *ReportRenderer {
	return &ReportRenderer{}
}

// Render 渲染映射报告
func (r *ReportRenderer) Render(g *graph.GraphModel, reasoning string) string {
	var sb strings.Builder

	sb.WriteString("# 图模型映射报告\n\n")
	fmt.Fprintf(&sb, "节点类型 %d 个，关系类型 %d 个。\n\n", len(g.Nodes), len(g.Relationships))

	sb.WriteString("## 节点\n\n")
	sb.WriteString("| 标签 | 来源表 | 属性数 | 说明 |\n")
	sb.WriteString("|------|--------|--------|------|\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n",
			n.Label, n.SourceTable, len(n.Properties), n.Description)
	}
	sb.WriteString("\n")

	if len(g.Relationships) > 0 {
		sb.WriteString("## 关系\n\n")
		sb.WriteString("| 类型 | 起点 | 终点 | 来源表 | 连接表 | 说明 |\n")
		sb.WriteString("|------|------|------|--------|--------|------|\n")
		for _, rel := range g.Relationships {
			join := ""
			if rel.JoinTable {
				join = "是"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
				rel.Type, rel.FromNode, rel.ToNode, rel.SourceTable, join, rel.Description)
		}
		sb.WriteString("\n")
	}

	if reasoning != "" {
		sb.WriteString("## 建模思路\n\n")
		sb.WriteString(reasoning + "\n")
	}
	return sb.String()
}
