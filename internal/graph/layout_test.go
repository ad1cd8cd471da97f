package graph

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelWithNodes(n int) *GraphModel {
	g := &GraphModel{}
	for i := 0; i < n; i++ {
		g.Nodes = append(g.Nodes, NodeType{Label: fmt.Sprintf("Node%d", i)})
	}
	return g
}

func TestAssignLayoutPaletteCycles(t *testing.T) {
	g := modelWithNodes(len(Palette) + 3)
	AssignLayout(g)

	for i, node := range g.Nodes {
		assert.Equal(t, Palette[i%len(Palette)], node.Color, "node %d", i)
	}
	// 超过调色板长度后从头循环
	assert.Equal(t, Palette[0], g.Nodes[len(Palette)].Color)
}

func TestAssignLayoutCirclePositions(t *testing.T) {
	const n = 7
	g := modelWithNodes(n)
	AssignLayout(g)

	for i, node := range g.Nodes {
		angle := 2 * math.Pi * float64(i) / float64(n)
		assert.InDelta(t, LayoutCenterX+LayoutRadius*math.Cos(angle), node.X, 1e-9)
		assert.InDelta(t, LayoutCenterY+LayoutRadius*math.Sin(angle), node.Y, 1e-9)
	}
}

func TestAssignLayoutDeterministic(t *testing.T) {
	a := modelWithNodes(5)
	b := modelWithNodes(5)
	AssignLayout(a)
	AssignLayout(b)
	require.Equal(t, a.Nodes, b.Nodes)

	// 重复执行结果不变
	AssignLayout(a)
	require.Equal(t, b.Nodes, a.Nodes)
}

func TestAssignLayoutEmptyModel(t *testing.T) {
	g := &GraphModel{}
	AssignLayout(g)
	assert.Empty(t, g.Nodes)
}

func TestKeyProperty(t *testing.T) {
	n := NodeType{Properties: []PropertyMapping{
		{Column: "name", Property: "name"},
		{Column: "id", Property: "id", IsKey: true},
	}}
	key := n.KeyProperty()
	require.NotNil(t, key)
	assert.Equal(t, "id", key.Column)

	none := NodeType{Properties: []PropertyMapping{{Column: "x", Property: "x"}}}
	assert.Nil(t, none.KeyProperty())
}
