package mapping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graph-migrator/internal/graph"
)

// fakeClient 返回固定响应或固定错误的协作方客户端
type fakeClient struct {
	response string
	err      error

	lastSystem string
	lastUser   string
}

func (f *fakeClient) Generate(ctx context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const cannedResponse = `{
  "graphModel": {
    "nodes": [
      {"label": "User", "sourceTable": "dbo.Users",
       "properties": [{"column": "id", "property": "id", "dataType": "int", "isKey": true}]},
      {"label": "Order", "sourceTable": "dbo.Orders",
       "properties": [{"column": "id", "property": "id", "dataType": "int", "isKey": true}]}
    ],
    "relationships": [
      {"type": "PLACED", "fromNode": "User", "toNode": "Order", "sourceTable": "dbo.Orders"}
    ]
  },
  "reasoning": "用户下单关系",
  "schemaScript": "CREATE CONSTRAINT ...;",
  "dataScript": "LOAD CSV ...;"
}`

func TestRequestorMap(t *testing.T) {
	client := &fakeClient{response: cannedResponse}
	r := NewRequestor(client, zap.NewNop())

	result, err := r.Map(context.Background(), shopSnapshot(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, client.lastSystem)
	assert.Contains(t, client.lastUser, "dbo.Users")

	require.Len(t, result.Model.Nodes, 2)
	assert.Equal(t, "用户下单关系", result.Reasoning)
	assert.Equal(t, "CREATE CONSTRAINT ...;", result.SchemaScript)

	// 布局在本地补齐，不依赖协作方返回坐标
	for i, n := range result.Model.Nodes {
		assert.Equal(t, graph.Palette[i%len(graph.Palette)], n.Color)
		assert.NotZero(t, n.X)
		assert.NotZero(t, n.Y)
	}
}

func TestRequestorMapClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("上游超时")}
	r := NewRequestor(client, zap.NewNop())

	_, err := r.Map(context.Background(), shopSnapshot(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "协作方调用失败")
}

func TestRequestorMapMalformedResponse(t *testing.T) {
	client := &fakeClient{response: "这不是 JSON"}
	r := NewRequestor(client, zap.NewNop())

	_, err := r.Map(context.Background(), shopSnapshot(), nil)
	assert.Error(t, err)
}
