package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graph-migrator/internal/adapter"
	"graph-migrator/internal/ai"
	"graph-migrator/internal/config"
	"graph-migrator/internal/export"
	"graph-migrator/internal/mapping"
	"graph-migrator/internal/renderer"
)

var (
	dbType     string
	connStr    string
	schema     string
	outputDir  string
	outputFile string
	sampleSize int
	useLocal   bool
	aiAPIKey   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graph-migrator",
		Short: "关系型数据库到图数据库的迁移工具",
		Long:  "提取数据库结构，推断图模型，生成 Neo4j 迁移脚本和 CSV 数据归档",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "分析数据库结构并生成图模型",
		Run:   runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&dbType, "type", "sqlserver", "数据库类型 (sqlserver/mysql/postgres)")
	analyzeCmd.Flags().StringVar(&connStr, "conn", "", "连接字符串")
	analyzeCmd.Flags().StringVar(&schema, "schema", "", "数据库 schema (MySQL 必需)")
	analyzeCmd.Flags().StringVar(&outputDir, "output", "./output", "输出目录")
	analyzeCmd.Flags().IntVar(&sampleSize, "sample", adapter.DefaultSampleSize, "每表样本行数（0 不采样）")
	analyzeCmd.Flags().BoolVar(&useLocal, "local", false, "使用本地启发式策略（不调用 AI）")
	analyzeCmd.Flags().StringVar(&aiAPIKey, "ai-key", "", "AI API Key（或使用环境变量 GEMINI_API_KEY）")
	analyzeCmd.MarkFlagRequired("conn")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "导出所有表为 CSV 归档",
		Run:   runExport,
	}
	exportCmd.Flags().StringVar(&dbType, "type", "sqlserver", "数据库类型 (sqlserver/mysql/postgres)")
	exportCmd.Flags().StringVar(&connStr, "conn", "", "连接字符串")
	exportCmd.Flags().StringVar(&schema, "schema", "", "数据库 schema (MySQL 必需)")
	exportCmd.Flags().StringVar(&outputFile, "output", "./export.zip", "归档输出路径")
	exportCmd.MarkFlagRequired("conn")

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "测试数据库连接",
		Run:   runProbe,
	}
	probeCmd.Flags().StringVar(&dbType, "type", "sqlserver", "数据库类型 (sqlserver/mysql/postgres)")
	probeCmd.Flags().StringVar(&connStr, "conn", "", "连接字符串")
	probeCmd.MarkFlagRequired("conn")

	rootCmd.AddCommand(analyzeCmd, exportCmd, probeCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	fmt.Println("🔍 连接数据库...")
	db, err := adapter.Open(adapter.Descriptor{Driver: dbType, ConnStr: connStr, Schema: schema}, logger)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer db.Close()

	fmt.Println("📊 提取结构快照...")
	snap, err := db.Snapshot(ctx)
	if err != nil {
		log.Fatalf("提取元数据失败: %v", err)
	}
	fmt.Printf("✓ 发现 %d 个表，%d 个外键\n", len(snap.Tables), len(snap.ForeignKeys))

	var samples adapter.SampleDataset
	if sampleSize > 0 {
		fmt.Printf("🎲 采样数据（每表 %d 行）...\n", sampleSize)
		samples = adapter.SampleTables(ctx, db, snap.Tables, sampleSize, logger)
	}

	strategy := pickStrategy(cfg, logger)

	fmt.Println("🧠 推断图模型...")
	result, err := strategy.Map(ctx, snap, samples)
	if err != nil {
		log.Fatalf("映射失败: %v", err)
	}
	fmt.Printf("✓ 节点类型 %d 个，关系类型 %d 个\n", len(result.Model.Nodes), len(result.Model.Relationships))

	fmt.Println("📝 生成输出文件...")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("创建输出目录失败: %v", err)
	}

	modelJSON, err := result.Model.ToJSON()
	if err != nil {
		log.Fatalf("序列化图模型失败: %v", err)
	}
	writeOutput("graph.json", modelJSON)
	writeOutput("schema.cypher", []byte(result.SchemaScript))
	writeOutput("load.cypher", []byte(result.DataScript))

	report := renderer.NewReportRenderer()
	writeOutput("report.md", []byte(report.Render(result.Model, result.Reasoning)))

	fmt.Println("\n✅ 分析完成！")
}

func pickStrategy(cfg *config.Config, logger *zap.Logger) mapping.Strategy {
	apiKey := aiAPIKey
	if apiKey == "" {
		apiKey = cfg.GeminiAPIKey
	}

	if useLocal || apiKey == "" {
		if !useLocal {
			fmt.Println("⚠️  未提供 API Key，回退到本地启发式策略")
			fmt.Println("   提示：使用 --ai-key 或设置环境变量 GEMINI_API_KEY")
		}
		return mapping.NewHeuristicStrategy(logger)
	}

	client, err := ai.NewGeminiClient(ai.Config{
		APIKey:   apiKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
	}, logger)
	if err != nil {
		log.Fatalf("创建 AI 客户端失败: %v", err)
	}
	return mapping.NewRequestor(client, logger)
}

func writeOutput(name string, data []byte) {
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("写入 %s 失败: %v", path, err)
	}
	fmt.Printf("✓ %s\n", path)
}

func runExport(cmd *cobra.Command, args []string) {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	ctx := context.Background()

	fmt.Println("🔍 连接数据库...")
	db, err := adapter.Open(adapter.Descriptor{Driver: dbType, ConnStr: connStr, Schema: schema}, logger)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer db.Close()

	snap, err := db.Snapshot(ctx)
	if err != nil {
		log.Fatalf("提取元数据失败: %v", err)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		log.Fatalf("创建归档文件失败: %v", err)
	}
	defer f.Close()

	fmt.Printf("📦 导出 %d 个表...\n", len(snap.Tables))
	if err := export.WriteArchive(ctx, db, snap.Tables, f, logger); err != nil {
		log.Fatalf("写入归档失败: %v", err)
	}

	fmt.Printf("✅ 导出完成: %s\n", outputFile)
}

func runProbe(cmd *cobra.Command, args []string) {
	ok, msg := adapter.Probe(adapter.Descriptor{Driver: dbType, ConnStr: connStr})
	if ok {
		fmt.Printf("✓ %s\n", msg)
	} else {
		fmt.Printf("✗ %s\n", msg)
	}
}
