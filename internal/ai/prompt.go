package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"graph-migrator/internal/adapter"
)

// SystemPrompt 固定系统指令：约束协作方只返回一个 JSON 对象，
// 生成的说明文字用中文
const SystemPrompt = `你是图数据库建模专家，精通把关系型数据库结构迁移到 Neo4j。
用户会给你一份数据库结构（表、列、主键、外键，可能附带样本数据）。

请完成：
1. 推断图模型：哪些表是节点，哪些表是两个实体之间的连接表（应映射为关系而不是节点），每个列映射到哪个属性
2. 生成 Neo4j 结构脚本（约束/索引）
3. 生成数据导入脚本（LOAD CSV，数据文件命名为 <schema>_<table>.csv）

只返回一个 JSON 对象，不要其他文字，格式：
{
  "graphModel": {
    "nodes": [
      {"label": "节点标签", "sourceTable": "来源表全名", "description": "中文说明",
       "properties": [{"column": "列名", "property": "属性名", "dataType": "类型", "isKey": true}]}
    ],
    "relationships": [
      {"type": "关系类型", "fromNode": "起点标签", "toNode": "终点标签",
       "sourceTable": "来源表全名", "description": "中文说明", "joinTable": false,
       "properties": []}
    ]
  },
  "reasoning": "建模思路（中文）",
  "schemaScript": "Cypher 结构脚本",
  "dataScript": "Cypher 导入脚本"
}

注意：
1. 连接表（只含两个外键和少量附加列的表）映射为关系，joinTable 设为 true
2. 节点标签用单数 PascalCase，关系类型用大写下划线
3. description 和 reasoning 必须是中文`

// BuildPrompt 把快照（和可选样本）序列化成用户指令文本块
func BuildPrompt(snap *adapter.SchemaSnapshot, samples adapter.SampleDataset) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "数据库: %s\n\n## 表结构\n\n", snap.Database)

	for _, t := range snap.Tables {
		fmt.Fprintf(&sb, "### %s\n", t.FullName())
		for _, c := range t.Columns {
			var marks []string
			if c.IsPrimaryKey {
				marks = append(marks, "PK")
			}
			if c.IsForeignKey {
				marks = append(marks, "FK")
			}
			if c.Nullable {
				marks = append(marks, "NULL")
			}
			line := fmt.Sprintf("- %s %s", c.Name, c.DataType)
			if c.Length > 0 {
				line += fmt.Sprintf("(%d)", c.Length)
			}
			if len(marks) > 0 {
				line += " [" + strings.Join(marks, ",") + "]"
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	if len(snap.ForeignKeys) > 0 {
		sb.WriteString("## 外键\n\n")
		for _, fk := range snap.ForeignKeys {
			fmt.Fprintf(&sb, "- %s: %s.%s -> %s.%s\n",
				fk.ConstraintName, fk.FromTable, fk.FromColumn, fk.ToTable, fk.ToColumn)
		}
		sb.WriteString("\n")
	}

	if len(samples) > 0 {
		sb.WriteString("## 样本数据\n\n")
		for _, t := range snap.Tables {
			rows, ok := samples[t.FullName()]
			if !ok || len(rows) == 0 {
				continue
			}
			data, err := json.Marshal(rows)
			if err != nil {
				continue
			}
			fmt.Fprintf(&sb, "### %s\n%s\n\n", t.FullName(), string(data))
		}
	}

	return sb.String()
}
