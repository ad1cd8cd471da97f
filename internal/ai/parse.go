package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"graph-migrator/internal/graph"
)

// MappingPayload 协作方约定返回的单个 JSON 对象。
// encoding/json 的字段匹配本身不区分大小写
type MappingPayload struct {
	GraphModel   *graph.GraphModel `json:"graphModel"`
	Reasoning    string            `json:"reasoning"`
	SchemaScript string            `json:"schemaScript"`
	DataScript   string            `json:"dataScript"`
}

// jsonFenceRegex 提取被 markdown 代码块包裹的 JSON 对象
var jsonFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*({.*})\\s*```")

// ParseMapping 宽容解析协作方响应。解析失败或缺少 graphModel
// 对本次请求是致命错误，不返回半成品模型。
func ParseMapping(response string) (*MappingPayload, error) {
	text := strings.TrimSpace(response)
	if text == "" {
		return nil, fmt.Errorf("协作方响应为空")
	}

	candidate := text
	if strings.HasPrefix(text, "```") {
		if m := jsonFenceRegex.FindStringSubmatch(text); len(m) > 1 {
			candidate = m[1]
		}
	} else if !strings.HasPrefix(text, "{") {
		// 对象可能被夹在对话文字里
		fb := strings.Index(text, "{")
		lb := strings.LastIndex(text, "}")
		if fb == -1 || lb <= fb {
			return nil, fmt.Errorf("响应中找不到 JSON 对象")
		}
		candidate = text[fb : lb+1]
	}

	var payload MappingPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("解析协作方 JSON 失败: %w", err)
	}
	if payload.GraphModel == nil || len(payload.GraphModel.Nodes) == 0 {
		return nil, fmt.Errorf("协作方响应缺少 graphModel")
	}
	return &payload, nil
}
