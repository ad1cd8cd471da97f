package mapping

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"graph-migrator/internal/adapter"
	"graph-migrator/internal/ai"
	"graph-migrator/internal/graph"
)

// AnalysisResult 一次映射的完整产物
type AnalysisResult struct {
	Model        *graph.GraphModel `json:"graphModel"`
	Reasoning    string            `json:"reasoning"`
	SchemaScript string            `json:"schemaScript"`
	DataScript   string            `json:"dataScript"`
}

// Strategy 映射策略：输入快照和可选样本，输出图模型和脚本。
// AI 策略和本地启发式策略可以互换，不影响提取和导出。
type Strategy interface {
	Map(ctx context.Context, snap *adapter.SchemaSnapshot, samples adapter.SampleDataset) (*AnalysisResult, error)
}

// Requestor AI 映射策略：序列化快照 -> 协作方一次往返 -> 解析 -> 本地布局
type Requestor struct {
	client ai.Client
	logger *zap.Logger
}

// NewRequestor 创建 AI 策略，协作方客户端由外部构造传入
func NewRequestor(client ai.Client, logger *zap.Logger) *Requestor {
	return &Requestor{client: client, logger: logger.Named("mapping.requestor")}
}

// Map 执行一次映射。协作方出错或响应解析失败对整个请求是致命的。
func (r *Requestor) Map(ctx context.Context, snap *adapter.SchemaSnapshot, samples adapter.SampleDataset) (*AnalysisResult, error) {
	prompt := ai.BuildPrompt(snap, samples)
	r.logger.Info("发起映射请求",
		zap.Int("tables", len(snap.Tables)),
		zap.Int("prompt_chars", len(prompt)))

	response, err := r.client.Generate(ctx, ai.SystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("协作方调用失败: %w", err)
	}

	payload, err := ai.ParseMapping(response)
	if err != nil {
		return nil, err
	}

	graph.AssignLayout(payload.GraphModel)

	return &AnalysisResult{
		Model:        payload.GraphModel,
		Reasoning:    payload.Reasoning,
		SchemaScript: payload.SchemaScript,
		DataScript:   payload.DataScript,
	}, nil
}
