package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arketic/taskmine/internal/bootstrap"
	"github.com/arketic/taskmine/internal/model"
	"github.com/arketic/taskmine/internal/pkg/buildinfo"
	"github.com/arketic/taskmine/internal/service"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskmine",
		Short: "TaskMine - 本地活动追踪与自动化机会挖掘",
		Long:  `TaskMine 在本地记录前台窗口与使用时长，挖掘重复操作序列，并给出值得自动化的候选任务。`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(usageCmd())
	rootCmd.AddCommand(sequencesCmd())
	rootCmd.AddCommand(candidatesCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// reportCmd 生成报告命令
func reportCmd() *cobra.Command {
	var week bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "生成每日/每周 JSON 报告",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			var path string
			var err error
			if week {
				fmt.Println("📊 正在生成本周报告...")
				path, err = core.Services.Report.GenerateWeeklyReport(ctx)
			} else {
				fmt.Println("📊 正在生成今日报告...")
				path, err = core.Services.Report.GenerateDailyReport(ctx)
			}
			if err != nil {
				fmt.Printf("❌ 生成报告失败: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ 报告已写入 %s\n", path)
		},
	}

	cmd.Flags().BoolVar(&week, "week", false, "生成本周报告")

	return cmd
}

// usageCmd 查看应用使用时长
func usageCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "查看指定日期的应用使用时长",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			targetDate := date
			if targetDate == "" {
				targetDate = time.Now().Format("2006-01-02")
			}

			entries, err := core.Repos.Usage.GetUsage(ctx, targetDate)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}
			if len(entries) == 0 {
				fmt.Printf("📚 %s 没有使用记录\n", targetDate)
				return
			}

			fmt.Printf("📅 %s 应用使用时长\n", targetDate)
			fmt.Println("═══════════════════════════════════════")
			var total int64
			for _, e := range entries {
				fmt.Printf("  %-32s %s\n", e.Application, service.FormatDuration(e.DurationSeconds))
				total += e.DurationSeconds
			}
			fmt.Println("───────────────────────────────────────")
			fmt.Printf("  %-32s %s\n", "合计", service.FormatDuration(total))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "指定日期 (YYYY-MM-DD)，默认今天")

	return cmd
}

// sequencesCmd 挖掘频繁窗口切换序列
func sequencesCmd() *cobra.Command {
	var days int
	var minFreq int
	var length int

	cmd := &cobra.Command{
		Use:   "sequences",
		Short: "挖掘频繁的窗口切换序列",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			miner := service.NewSequenceMiner(core.Repos.Event)
			seqs, err := miner.MineFrequentSequences(ctx, days, minFreq, length)
			if err != nil {
				fmt.Printf("❌ 挖掘失败: %v\n", err)
				os.Exit(1)
			}
			if len(seqs) == 0 {
				fmt.Println("📚 还没有足够的窗口切换记录")
				return
			}

			fmt.Printf("🔁 最近 %d 天出现 %d 次以上的序列\n", days, minFreq)
			fmt.Println("═══════════════════════════════════════")
			for i, s := range seqs {
				fmt.Printf("%2d. [%d 次] %s\n", i+1, s.Frequency, strings.Join(s.Labels, " → "))
			}
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "回溯天数")
	cmd.Flags().IntVar(&minFreq, "min-freq", 3, "最小出现次数")
	cmd.Flags().IntVar(&length, "length", 3, "序列长度")

	return cmd
}

// candidatesCmd 输出自动化候选
func candidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "识别值得自动化的候选任务",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			cands, err := core.Services.Analyzer.IdentifyAutomationCandidates(ctx)
			if err != nil {
				fmt.Printf("❌ 识别失败: %v\n", err)
				os.Exit(1)
			}
			if len(cands) == 0 {
				fmt.Println("📚 暂无自动化候选，先让 Agent 多跑一会儿")
				return
			}

			fmt.Println("🤖 自动化候选任务")
			fmt.Println("═══════════════════════════════════════")
			for i, c := range cands {
				fmt.Printf("%2d. [%s] %.1f 分 (%s)\n    %s\n", i+1, c.Priority, c.Score, c.Type, c.Description)
			}
		},
	}

	return cmd
}

// statsCmd 查看数据库统计
func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "查看采集数据统计",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			eventCount, err := core.Repos.Event.Count(ctx)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}

			since := time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339)
			fileCounts, err := core.Repos.File.CountByType(ctx, since)
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("📊 数据统计")
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("  活动事件总数: %d\n", eventCount)
			if core.DB.SafeMode {
				fmt.Printf("  ⚠️  数据库处于安全模式: %s\n", core.DB.MigrationError)
			}
			if len(fileCounts) > 0 {
				fmt.Println("  最近 7 天文件活动:")
				for _, t := range []string{model.FileCreated, model.FileModified, model.FileDeleted, model.FileRenamed} {
					if n, ok := fileCounts[t]; ok {
						fmt.Printf("    %-10s %d\n", t, n)
					}
				}
			}
		},
	}

	return cmd
}

// versionCmd 输出版本信息
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "输出版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskmine %s (%s)\n", buildinfo.Version, buildinfo.Commit)
		},
	}
}
