package graph

import "encoding/json"

// GraphModel 图模型：协作方推断出的节点/关系类型
type GraphModel struct {
	Nodes         []NodeType         `json:"nodes"`
	Relationships []RelationshipType `json:"relationships"`
}

// NodeType 节点类型。X/Y/Color 是展示属性，在模型返回后本地赋值
type NodeType struct {
	Label       string            `json:"label"`
	SourceTable string            `json:"sourceTable"`
	Description string            `json:"description,omitempty"`
	Properties  []PropertyMapping `json:"properties"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Color       string            `json:"color"`
}

// RelationshipType 关系类型
type RelationshipType struct {
	Type        string            `json:"type"`
	FromNode    string            `json:"fromNode"`
	ToNode      string            `json:"toNode"`
	SourceTable string            `json:"sourceTable"`
	Description string            `json:"description,omitempty"`
	Properties  []PropertyMapping `json:"properties,omitempty"`
	JoinTable   bool              `json:"joinTable"`
}

// PropertyMapping 列 -> 属性映射
type PropertyMapping struct {
	Column   string `json:"column"`
	Property string `json:"property"`
	DataType string `json:"dataType"`
	IsKey    bool   `json:"isKey"`
}

// FindNode 按标签查找节点
func (g *GraphModel) FindNode(label string) *NodeType {
	for i := range g.Nodes {
		if g.Nodes[i].Label == label {
			return &g.Nodes[i]
		}
	}
	return nil
}

// KeyProperty 节点的键属性（第一个 IsKey）
func (n *NodeType) KeyProperty() *PropertyMapping {
	for i := range n.Properties {
		if n.Properties[i].IsKey {
			return &n.Properties[i]
		}
	}
	return nil
}

// ToJSON 导出为 JSON
func (g *GraphModel) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}
