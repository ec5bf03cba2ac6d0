package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/headhash/internal/server"
	"github.com/any-hub/headhash/internal/version"
)

// RegisterDiagnosticsRoutes 暴露 /-/status 与 /-/cache/flush 诊断接口。
func RegisterDiagnosticsRoutes(app *fiber.App, runtime *server.Runtime) {
	if app == nil || runtime == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(encodeStatus(runtime))
	})

	app.Post("/-/cache/flush", func(c fiber.Ctx) error {
		if err := runtime.FlushCache(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "cache_flush_failed",
				"message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"flushed": true})
	})
}

type statusPayload struct {
	Version    string        `json:"version"`
	HashMethod string        `json:"hash_method"`
	Cache      cachePayload  `json:"cache"`
	Merge      mergePayload  `json:"merge"`
	Pages      []pagePayload `json:"pages"`
}

type cachePayload struct {
	Backend string `json:"backend"`
	Enabled bool   `json:"enabled"`
}

type mergePayload struct {
	Scripts bool `json:"js"`
	Styles  bool `json:"css"`
	Minify  bool `json:"minify"`
}

type pagePayload struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Items int    `json:"items"`
}

func encodeStatus(runtime *server.Runtime) statusPayload {
	g := runtime.Config.Global
	payload := statusPayload{
		Version:    version.Full(),
		HashMethod: string(runtime.Hasher.Method()),
		Cache: cachePayload{
			Backend: g.CacheBackend,
			Enabled: runtime.Hasher.CacheEnabled(),
		},
		Merge: mergePayload{
			Scripts: g.MergeJS,
			Styles:  g.MergeCSS,
			Minify:  g.MinifyMerged,
		},
		Pages: []pagePayload{},
	}
	for _, route := range runtime.Pages.List() {
		payload.Pages = append(payload.Pages, pagePayload{
			Path:  route.Path,
			Title: route.Config.Title,
			Items: len(route.Config.Items),
		})
	}
	return payload
}
