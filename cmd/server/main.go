package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"graph-migrator/internal/adapter"
	"graph-migrator/internal/ai"
	"graph-migrator/internal/config"
	"graph-migrator/internal/export"
	"graph-migrator/internal/mapping"
	"graph-migrator/internal/renderer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// AnalysisRequest 分析请求
type AnalysisRequest struct {
	DBType     string `json:"db_type"`     // sqlserver/mysql/postgres
	Host       string `json:"host"`        // 主机地址
	Port       string `json:"port"`        // 端口
	Username   string `json:"username"`    // 用户名
	Password   string `json:"password"`    // 密码
	Database   string `json:"database"`    // 数据库名
	SampleSize int    `json:"sample_size"` // 每表样本行数
	UseLocal   bool   `json:"use_local"`   // 使用本地启发式策略
	APIKey     string `json:"api_key"`     // AI API Key
}

// AnalysisTask 分析任务
type AnalysisTask struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"` // pending/running/completed/failed
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Result    *AnalysisOutput `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	request AnalysisRequest
}

// AnalysisOutput 分析结果
type AnalysisOutput struct {
	GraphJSON    string         `json:"graph_json"`
	Reasoning    string         `json:"reasoning"`
	SchemaScript string         `json:"schema_script"`
	DataScript   string         `json:"data_script"`
	ReportMD     string         `json:"report_md"`
	Stats        map[string]int `json:"stats"`
}

var (
	tasks   = make(map[string]*AnalysisTask)
	tasksMu sync.RWMutex

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	cfg = config.Load()

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	http.Handle("/", http.FileServer(http.Dir("web/static")))

	http.HandleFunc("/api/analyze", handleAnalyze)
	http.HandleFunc("/api/task/", handleTaskStatus)
	http.HandleFunc("/api/ws", handleWebSocket)
	http.HandleFunc("/api/test-connection", handleTestConnection)
	http.HandleFunc("/api/list-databases", handleListDatabases)
	http.HandleFunc("/api/export", handleExport)

	fmt.Printf("🚀 Graph Migrator Server\n")
	fmt.Printf("📡 服务地址: http://localhost:%s\n\n", cfg.Port)

	log.Fatal(http.ListenAndServe(":"+cfg.Port, nil))
}

// descriptorFor 按请求拼连接描述
func descriptorFor(req AnalysisRequest) adapter.Descriptor {
	switch req.DBType {
	case "mysql":
		return adapter.Descriptor{
			Driver: "mysql",
			ConnStr: fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?timeout=30s&readTimeout=30s&writeTimeout=30s",
				req.Username, req.Password, req.Host, req.Port, req.Database),
			Schema: req.Database,
		}
	case "postgres":
		db := req.Database
		if db == "" {
			db = "postgres"
		}
		return adapter.Descriptor{
			Driver: "postgres",
			ConnStr: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				req.Username, req.Password, req.Host, req.Port, db),
		}
	default:
		return adapter.Descriptor{
			Driver: "sqlserver",
			ConnStr: fmt.Sprintf("server=%s;port=%s;user id=%s;password=%s;database=%s",
				req.Host, req.Port, req.Username, req.Password, req.Database),
		}
	}
}

// handleAnalyze 处理分析请求
func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task := &AnalysisTask{
		ID:        uuid.NewString(),
		Status:    "pending",
		Progress:  0,
		Message:   "任务已创建，等待执行...",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		request:   req,
	}

	tasksMu.Lock()
	tasks[task.ID] = task
	tasksMu.Unlock()

	// 异步执行分析
	go runAnalysis(task)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"task_id": task.ID,
		"status":  "pending",
	})
}

// snapshotTask 持读锁取任务的值拷贝，序列化不和分析协程抢字段
func snapshotTask(taskID string) (AnalysisTask, bool) {
	tasksMu.RLock()
	defer tasksMu.RUnlock()

	task, exists := tasks[taskID]
	if !exists {
		return AnalysisTask{}, false
	}
	return *task, true
}

// handleTaskStatus 查询任务状态
func handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, exists := snapshotTask(filepath.Base(r.URL.Path))
	if !exists {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// handleWebSocket 持续推送任务状态
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		return
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		task, exists := snapshotTask(taskID)
		if !exists {
			break
		}
		if err := conn.WriteJSON(task); err != nil {
			break
		}
		if task.Status == "completed" || task.Status == "failed" {
			break
		}
	}
}

// runAnalysis 执行分析
func runAnalysis(task *AnalysisTask) {
	updateTask := func(status string, progress int, message string) {
		tasksMu.Lock()
		task.Status = status
		task.Progress = progress
		task.Message = message
		task.UpdatedAt = time.Now()
		tasksMu.Unlock()
	}

	ctx := context.Background()
	req := task.request

	updateTask("running", 10, "正在连接数据库...")

	db, err := adapter.Open(descriptorFor(req), logger)
	if err != nil {
		updateTask("failed", 0, fmt.Sprintf("连接失败: %v", err))
		return
	}
	defer db.Close()

	updateTask("running", 25, "提取结构快照...")

	snap, err := db.Snapshot(ctx)
	if err != nil {
		updateTask("failed", 25, fmt.Sprintf("提取元数据失败: %v", err))
		return
	}

	sampleSize := req.SampleSize
	if sampleSize == 0 {
		sampleSize = adapter.DefaultSampleSize
	}

	updateTask("running", 45, fmt.Sprintf("发现 %d 个表，采样数据...", len(snap.Tables)))
	samples := adapter.SampleTables(ctx, db, snap.Tables, sampleSize, logger)

	updateTask("running", 60, "推断图模型...")

	strategy, err := strategyFor(req)
	if err != nil {
		updateTask("failed", 60, err.Error())
		return
	}

	result, err := strategy.Map(ctx, snap, samples)
	if err != nil {
		updateTask("failed", 60, fmt.Sprintf("映射失败: %v", err))
		return
	}

	updateTask("running", 90, "生成输出...")

	graphJSON, err := result.Model.ToJSON()
	if err != nil {
		updateTask("failed", 90, fmt.Sprintf("序列化图模型失败: %v", err))
		return
	}

	report := renderer.NewReportRenderer()
	output := &AnalysisOutput{
		GraphJSON:    string(graphJSON),
		Reasoning:    result.Reasoning,
		SchemaScript: result.SchemaScript,
		DataScript:   result.DataScript,
		ReportMD:     report.Render(result.Model, result.Reasoning),
		Stats: map[string]int{
			"tables":        len(snap.Tables),
			"foreign_keys":  len(snap.ForeignKeys),
			"nodes":         len(result.Model.Nodes),
			"relationships": len(result.Model.Relationships),
		},
	}

	tasksMu.Lock()
	task.Result = output
	tasksMu.Unlock()

	updateTask("completed", 100, "分析完成！")
}

func strategyFor(req AnalysisRequest) (mapping.Strategy, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = cfg.GeminiAPIKey
	}

	if req.UseLocal || apiKey == "" {
		return mapping.NewHeuristicStrategy(logger), nil
	}

	client, err := ai.NewGeminiClient(ai.Config{
		APIKey:   apiKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("创建 AI 客户端失败: %v", err)
	}
	return mapping.NewRequestor(client, logger), nil
}

// handleTestConnection 测试数据库连接，永远 200，带成功标志和消息
func handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, msg := adapter.Probe(descriptorFor(req))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": ok,
		"message": msg,
	})
}

// handleListDatabases 列出所有数据库
func handleListDatabases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db, err := adapter.Open(descriptorFor(req), logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	databases, err := db.ListDatabases(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"databases": databases,
	})
}

// handleExport 导出所有表为 CSV 归档并直接下载
func handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db, err := adapter.Open(descriptorFor(req), logger)
	if err != nil {
		http.Error(w, fmt.Sprintf("连接失败: %v", err), http.StatusInternalServerError)
		return
	}
	defer db.Close()

	snap, err := db.Snapshot(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("提取元数据失败: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_export.zip"`, snap.Database))

	if err := export.WriteArchive(r.Context(), db, snap.Tables, w, logger); err != nil {
		// 响应头已发出，只能记日志
		logger.Error("写入归档失败", zap.Error(err))
	}
}
