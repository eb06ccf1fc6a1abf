package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weisyn/wasmsim/internal/app"
	"github.com/weisyn/wasmsim/internal/app/version"
	"github.com/weisyn/wasmsim/internal/cli/repl"
)

// 全局标志
var (
	flagConfig string
	flagPort   int
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "wasmsim <contract.wasm>",
	Short: "CosmWasm合约本地模拟器",
	Long: `wasmsim - CosmWasm智能合约的本地调试模拟器

在本机装载合约wasm文件，提供模拟链环境（账户余额、质押表、
区块高度推进）与交互式REPL，支持：
- instantiate / execute / query 全生命周期调用
- 跨合约消息递归调度与燃气计量
- 合约文件热重载（保留已有状态）
- 可选的REST接口（--port或配置文件启用）

同级 contract/<name>/<name>.wasm 目录下的合约会一并装载，
地址即目录名，便于调试跨合约调用。`,
	Version: version.GetFullVersion(),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), app.Options{
			ContractPath: args[0],
			ConfigPath:   flagConfig,
			Port:         flagPort,
		})
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "配置文件路径 (JSON)")
	rootCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "REST端口，指定后强制启用REST服务")
}

// run 装配并运行应用：启动各模块后进入REPL，REPL退出即停机
func run(ctx context.Context, opts app.Options) error {
	application, err := app.New(opts)
	if err != nil {
		return err
	}

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		if err := application.Stop(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "停止时出错: %v\n", err)
		}
	}()

	session, err := repl.New(application.Engine(), application.Schemas(), application.Logger())
	if err != nil {
		return err
	}
	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
