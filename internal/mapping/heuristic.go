package mapping

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.uber.org/zap"

	"graph-migrator/internal/adapter"
	"graph-migrator/internal/graph"
	"graph-migrator/internal/renderer"
)

// 推断关系需要的最低命名相似度
const inferThreshold = 0.85

// HeuristicStrategy 本地确定性映射策略：外键驱动建模，
// 连接表映射为关系，命名相似度补推隐式外键。
// 不依赖协作方，可替换 AI 策略用于离线和测试场景。
type HeuristicStrategy struct {
	logger *zap.Logger
}

// NewHeuristicStrategy 创建本地策略
func NewHeuristicStrategy(logger *zap.Logger) *HeuristicStrategy {
	return &HeuristicStrategy{logger: logger.Named("mapping.heuristic")}
}

// Map 执行本地映射，样本数据在此策略中不参与推断
func (h *HeuristicStrategy) Map(ctx context.Context, snap *adapter.SchemaSnapshot, samples adapter.SampleDataset) (*AnalysisResult, error) {
	_ = ctx

	fksByTable := make(map[string][]adapter.ForeignKey)
	for _, fk := range snap.ForeignKeys {
		fksByTable[fk.FromTable] = append(fksByTable[fk.FromTable], fk)
	}

	// 连接表：恰好两个外键且附加列很少
	joinTables := make(map[string]bool)
	for _, t := range snap.Tables {
		if isJoinTable(t, fksByTable[t.FullName()]) {
			joinTables[t.FullName()] = true
		}
	}

	model := &graph.GraphModel{}
	labelByTable := make(map[string]string)

	for _, t := range snap.Tables {
		if joinTables[t.FullName()] {
			continue
		}
		label := LabelForTable(t.Name)
		labelByTable[t.FullName()] = label

		node := graph.NodeType{
			Label:       label,
			SourceTable: t.FullName(),
			Description: fmt.Sprintf("来源表 %s", t.FullName()),
		}
		for _, c := range t.Columns {
			if c.IsForeignKey {
				continue
			}
			node.Properties = append(node.Properties, graph.PropertyMapping{
				Column:   c.Name,
				Property: CamelCase(c.Name),
				DataType: c.DataType,
				IsKey:    c.IsPrimaryKey,
			})
		}
		model.Nodes = append(model.Nodes, node)
	}

	explicit, inferred := 0, 0

	// 显式外键 -> 关系
	for _, t := range snap.Tables {
		fks := fksByTable[t.FullName()]
		if joinTables[t.FullName()] {
			if rel, ok := joinTableRelationship(t, fks, labelByTable); ok {
				model.Relationships = append(model.Relationships, rel)
				explicit++
			} else {
				h.logger.Warn("连接表两端无法解析，跳过", zap.String("table", t.FullName()))
			}
			continue
		}
		for _, fk := range fks {
			from, okF := labelByTable[fk.FromTable]
			to, okT := labelByTable[fk.ToTable]
			if !okF || !okT {
				continue
			}
			model.Relationships = append(model.Relationships, graph.RelationshipType{
				Type:        UpperSnake(from) + "_" + UpperSnake(to),
				FromNode:    from,
				ToNode:      to,
				SourceTable: fk.FromTable,
				Description: fmt.Sprintf("外键约束 %s", fk.ConstraintName),
				Properties: []graph.PropertyMapping{
					{Column: fk.FromColumn, Property: CamelCase(fk.FromColumn), DataType: columnType(t, fk.FromColumn), IsKey: true},
				},
			})
			explicit++
		}
	}

	// 隐式外键：命名相似 + 类型兼容
	inferred = h.inferRelationships(snap, joinTables, labelByTable, model)

	cy := renderer.NewCypherRenderer()
	result := &AnalysisResult{
		Model:        model,
		SchemaScript: cy.RenderSchema(model),
		DataScript:   cy.RenderLoad(model),
		Reasoning: fmt.Sprintf(
			"本地启发式映射：%d 个表映射为 %d 个节点类型，识别连接表 %d 个，显式外键关系 %d 个，命名推断关系 %d 个。",
			len(snap.Tables), len(model.Nodes), len(joinTables), explicit, inferred),
	}

	graph.AssignLayout(model)
	return result, nil
}

// inferRelationships 对没有外键约束的列按命名相似度和类型兼容性补推关系
func (h *HeuristicStrategy) inferRelationships(
	snap *adapter.SchemaSnapshot,
	joinTables map[string]bool,
	labelByTable map[string]string,
	model *graph.GraphModel,
) int {
	count := 0
	for _, t := range snap.Tables {
		if joinTables[t.FullName()] {
			continue
		}
		for _, c := range t.Columns {
			if c.IsPrimaryKey || c.IsForeignKey {
				continue
			}
			for _, target := range snap.Tables {
				if target.FullName() == t.FullName() || target.PrimaryKey == "" || joinTables[target.FullName()] {
					continue
				}
				pkCol := findColumn(target, target.PrimaryKey)
				if pkCol == nil || !TypeCompatible(c.DataType, pkCol.DataType) {
					continue
				}

				// "user_id" 应与 "users"+"id" 组合匹配，也和裸主键名比较
				score := math.Max(
					NameSimilarity(c.Name, target.Name+"_"+target.PrimaryKey),
					NameSimilarity(c.Name, singular(target.Name)+"_"+target.PrimaryKey),
				)
				if score < inferThreshold {
					continue
				}

				from := labelByTable[t.FullName()]
				to := labelByTable[target.FullName()]
				model.Relationships = append(model.Relationships, graph.RelationshipType{
					Type:        UpperSnake(from) + "_" + UpperSnake(to),
					FromNode:    from,
					ToNode:      to,
					SourceTable: t.FullName(),
					Description: fmt.Sprintf("基于命名相似度推断（%.2f）", score),
					Properties: []graph.PropertyMapping{
						{Column: c.Name, Property: CamelCase(c.Name), DataType: c.DataType, IsKey: true},
					},
				})
				count++
				break
			}
		}
	}
	return count
}

func isJoinTable(t adapter.Table, fks []adapter.ForeignKey) bool {
	if len(fks) != 2 {
		return false
	}
	extras := 0
	for _, c := range t.Columns {
		if !c.IsForeignKey && !c.IsPrimaryKey {
			extras++
		}
	}
	return extras <= 2
}

func joinTableRelationship(t adapter.Table, fks []adapter.ForeignKey, labelByTable map[string]string) (graph.RelationshipType, bool) {
	from, okF := labelByTable[fks[0].ToTable]
	to, okT := labelByTable[fks[1].ToTable]
	if !okF || !okT {
		return graph.RelationshipType{}, false
	}

	rel := graph.RelationshipType{
		Type:        UpperSnake(LabelForTable(t.Name)),
		FromNode:    from,
		ToNode:      to,
		SourceTable: t.FullName(),
		Description: fmt.Sprintf("连接表 %s", t.FullName()),
		JoinTable:   true,
		Properties: []graph.PropertyMapping{
			{Column: fks[0].FromColumn, Property: CamelCase(fks[0].FromColumn), DataType: columnType(t, fks[0].FromColumn), IsKey: true},
			{Column: fks[1].FromColumn, Property: CamelCase(fks[1].FromColumn), DataType: columnType(t, fks[1].FromColumn), IsKey: true},
		},
	}
	for _, c := range t.Columns {
		if c.IsForeignKey || c.IsPrimaryKey {
			continue
		}
		rel.Properties = append(rel.Properties, graph.PropertyMapping{
			Column:   c.Name,
			Property: CamelCase(c.Name),
			DataType: c.DataType,
		})
	}
	return rel, true
}

func columnType(t adapter.Table, name string) string {
	if c := findColumn(t, name); c != nil {
		return c.DataType
	}
	return ""
}

func findColumn(t adapter.Table, name string) *adapter.Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// NameSimilarity 命名相似度：完全匹配 1.0，包含 0.8，
// 其余用 Levenshtein 距离换算，低于 0.7 按 0 处理
func NameSimilarity(name1, name2 string) float64 {
	n1 := strings.ToLower(name1)
	n2 := strings.ToLower(name2)

	if n1 == n2 {
		return 1.0
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return 0.8
	}

	maxLen := math.Max(float64(len(n1)), float64(len(n2)))
	if maxLen == 0 {
		return 0
	}
	distance := levenshtein.DistanceForStrings([]rune(n1), []rune(n2), levenshtein.DefaultOptions)
	similarity := 1.0 - float64(distance)/maxLen
	if similarity > 0.7 {
		return similarity
	}
	return 0
}

// TypeCompatible 判断数据类型是否兼容
func TypeCompatible(type1, type2 string) bool {
	t1 := strings.ToLower(type1)
	t2 := strings.ToLower(type2)

	if t1 == t2 {
		return true
	}

	stringTypes := map[string]bool{
		"varchar": true, "nvarchar": true, "char": true, "nchar": true,
		"text": true, "character varying": true, "uuid": true, "uniqueidentifier": true,
	}
	if stringTypes[t1] && stringTypes[t2] {
		return true
	}

	intTypes := map[string]bool{
		"int": true, "bigint": true, "smallint": true, "tinyint": true, "integer": true,
	}
	return intTypes[t1] && intTypes[t2]
}

// LabelForTable 表名 -> 单数 PascalCase 节点标签（dbo 前缀外的裸表名）
func LabelForTable(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if i == len(parts)-1 {
			p = singular(p)
		}
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

// CamelCase 列名 -> camelCase 属性名
func CamelCase(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, "")
}

// UpperSnake PascalCase -> 大写下划线
func UpperSnake(label string) string {
	var sb strings.Builder
	for i, r := range label {
		if r >= 'A' && r <= 'Z' && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToUpper(sb.String())
}

func singular(word string) string {
	lower := strings.ToLower(word)
	switch {
	case strings.HasSuffix(lower, "ies") && len(word) > 3:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "ses") && len(word) > 3:
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(word) > 1:
		return word[:len(word)-1]
	default:
		return word
	}
}
