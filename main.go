package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/headhash/internal/config"
	"github.com/any-hub/headhash/internal/logging"
	"github.com/any-hub/headhash/internal/server"
	"github.com/any-hub/headhash/internal/server/routes"
	"github.com/any-hub/headhash/internal/version"
)

const (
	configEnv     = "HEADHASH_CONFIG"
	defaultConfig = "config.toml"
)

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute 运行 CLI 并返回退出码，方便测试。
func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdOut)
	root.SetErr(stdErr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stdErr, err.Error())
		return 1
	}
	return 0
}

// newRootCmd 构建完整的命令树，每次调用返回独立实例以避免测试间共享标志状态。
func newRootCmd() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:           "headhash",
		Short:         "Content-hashed asset URLs for storefront head blocks",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 HEADHASH_CONFIG 覆盖）")

	configPath := func() string {
		return resolveConfigPath(configFlag)
	}

	root.AddCommand(
		newServeCmd(configPath),
		newCheckConfigCmd(configPath),
		newRenderCmd(configPath),
		newHashCmd(),
		newFlushCmd(configPath),
		newVersionCmd(),
	)
	return root
}

// resolveConfigPath 按 flag → 环境变量 → 默认值的顺序确定配置路径。
func resolveConfigPath(flagValue string) string {
	if path := strings.TrimSpace(flagValue); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(configEnv)); path != "" {
		return path
	}
	return defaultConfig
}

// bootstrap 加载配置并初始化日志。
func bootstrap(configPath string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

// loadRuntime 在 bootstrap 之后构建缓存、hasher 与页面表。
func loadRuntime(configPath string) (*server.Runtime, *logrus.Logger, error) {
	cfg, logger, err := bootstrap(configPath)
	if err != nil {
		return nil, nil, err
	}
	rt, err := server.NewRuntime(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化运行时失败: %w", err)
	}
	return rt, logger, nil
}

func newServeCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath()
			rt, logger, err := loadRuntime(path)
			if err != nil {
				return err
			}
			defer rt.Close()

			fields := logging.BaseFields("startup", path)
			fields["pages"] = len(rt.Config.Pages)
			fields["listen_port"] = rt.Config.Global.ListenPort
			fields["cache_backend"] = rt.Config.Global.CacheBackend
			fields["hash_method"] = string(rt.Hasher.Method())
			fields["version"] = version.Full()
			logger.WithFields(fields).Info("配置加载完成")

			if err := startHTTPServer(rt, logger); err != nil {
				return fmt.Errorf("HTTP 服务启动失败: %w", err)
			}
			return nil
		},
	}
}

func startHTTPServer(rt *server.Runtime, logger *logrus.Logger) error {
	port := rt.Config.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Runtime:    rt,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, rt)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
