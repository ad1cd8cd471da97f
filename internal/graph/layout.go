package graph

import "math"

// Palette 固定配色，按节点序号循环取用
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// 布局常量：固定圆心和半径
const (
	LayoutCenterX = 400.0
	LayoutCenterY = 300.0
	LayoutRadius  = 250.0
)

// AssignLayout 给每个节点确定性地分配颜色和圆周坐标。
// 纯本地计算：同样的节点顺序必然得到同样的结果。
func AssignLayout(g *GraphModel) {
	n := len(g.Nodes)
	if n == 0 {
		return
	}
	for i := range g.Nodes {
		angle := 2 * math.Pi * float64(i) / float64(n)
		g.Nodes[i].Color = Palette[i%len(Palette)]
		g.Nodes[i].X = LayoutCenterX + LayoutRadius*math.Cos(angle)
		g.Nodes[i].Y = LayoutCenterY + LayoutRadius*math.Sin(angle)
	}
}
