package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/any-hub/headhash/internal/config"
	"github.com/any-hub/headhash/internal/head"
	"github.com/any-hub/headhash/internal/logging"
)

func newCheckConfigCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath()
			cfg, logger, err := bootstrap(path)
			if err != nil {
				return err
			}

			fields := logging.BaseFields("check_config", path)
			fields["pages"] = len(cfg.Pages)
			fields["cache_backend"] = cfg.Global.CacheBackend
			fields["result"] = "ok"
			logger.WithFields(fields).Info("配置校验通过")

			fmt.Fprintf(cmd.OutOrStdout(), "配置有效: %s (%d 个页面)\n", path, len(cfg.Pages))
			return nil
		},
	}
}

func newRenderCmd(configPath func() string) *cobra.Command {
	var (
		pagePath string
		secure   bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the rendered head assets of a configured page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, _, err := loadRuntime(configPath())
			if err != nil {
				return err
			}
			defer rt.Close()

			route, ok := rt.Pages.Lookup(pagePath)
			if !ok {
				return fmt.Errorf("页面未配置: %s (已配置: %v)", pagePath, config.PagePaths(rt.Config.Pages))
			}
			fmt.Fprint(cmd.OutOrStdout(), rt.RenderHead(cmd.Context(), route.Config, secure))
			return nil
		},
	}
	cmd.Flags().StringVar(&pagePath, "page", "/", "页面路径")
	cmd.Flags().BoolVar(&secure, "secure", false, "按 https 请求渲染")
	return cmd
}

func newHashCmd() *cobra.Command {
	var (
		assetURL string
		method   string
	)

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the checksum of a file, or a URL with the checksum embedded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashMethod, err := head.ParseHashMethod(method)
			if err != nil {
				return err
			}
			sum, err := head.FileChecksum(args[0])
			if err != nil {
				return fmt.Errorf("计算校验和失败: %w", err)
			}
			if assetURL == "" {
				fmt.Fprintln(cmd.OutOrStdout(), sum)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), head.EmbedHash(assetURL, sum, hashMethod))
			return nil
		},
	}
	cmd.Flags().StringVar(&assetURL, "url", "", "需要嵌入哈希的 URL")
	cmd.Flags().StringVar(&method, "method", string(head.MethodVersion), "哈希嵌入方式 (version/query)")
	return cmd
}

func newFlushCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop every cached hashed URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, _, err := loadRuntime(configPath())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.FlushCache(cmd.Context()); err != nil {
				return fmt.Errorf("清理缓存失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已清理缓存标签 %s\n", head.CacheGroup)
			return nil
		},
	}
}
