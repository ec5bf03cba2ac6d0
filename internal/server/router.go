package server

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/headhash/internal/head"
	"github.com/any-hub/headhash/internal/logging"
)

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Runtime    *Runtime
	ListenPort int
}

const contextKeyRequestID = "_headhash_request_id"

const pageTemplate = "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n<title>%s</title>\n%s</head>\n<body></body>\n</html>\n"

// NewApp builds a Fiber application serving static assets, configured pages
// and JSON errors.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Runtime == nil {
		return nil, errors.New("runtime is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	loc := opts.Runtime.Locations
	for _, kind := range []head.LocationKind{head.LocationJS, head.LocationSkin, head.LocationMedia} {
		app.Get("/"+string(kind)+"/*", staticHandler(loc.BaseDir(kind), opts.Logger))
	}

	app.All("/*", func(c fiber.Ctx) error {
		path := string(c.Request().URI().Path())
		if isDiagnosticsPath(path) {
			return c.Next()
		}
		route, ok := opts.Runtime.Pages.Lookup(path)
		if !ok {
			return renderNotFound(c, opts.Logger, path)
		}
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{"error": "method_not_allowed"})
		}
		return renderPage(c, opts, route)
	})

	return app, nil
}

// requestContextMiddleware 为每个请求生成请求 ID 并写入响应头。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

func renderPage(c fiber.Ctx, opts AppOptions, route *PageRoute) error {
	secure := IsSecure(c)
	headHTML := opts.Runtime.RenderHead(c.Context(), route.Config, secure)

	opts.Logger.WithFields(logging.RequestFields(route.Path, secure, RequestID(c))).
		WithField("action", "page_render").
		Debug("page rendered")

	c.Type("html", "utf-8")
	return c.SendString(fmt.Sprintf(pageTemplate, html.EscapeString(route.Config.Title), headHTML))
}

func renderNotFound(c fiber.Ctx, logger *logrus.Logger, path string) error {
	logger.WithFields(logrus.Fields{
		"action":     "route_lookup",
		"path":       path,
		"request_id": RequestID(c),
	}).Debug("route not found")

	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not_found",
	})
}

// errorHandler 将未处理的错误统一输出为 JSON。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}
		if code == fiber.StatusNotFound {
			return c.Status(code).JSON(fiber.Map{"error": "not_found"})
		}

		logger.WithError(err).WithFields(logrus.Fields{
			"action":     "request",
			"path":       c.Path(),
			"status":     code,
			"request_id": RequestID(c),
		}).Error("request failed")
		return c.Status(code).JSON(fiber.Map{"error": errorCode(code)})
	}
}

func errorCode(code int) string {
	switch code {
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	case fiber.StatusBadRequest:
		return "bad_request"
	default:
		return "internal_error"
	}
}

// IsSecure 判断请求是否经由 https 到达，包括反向代理转发的场景。
func IsSecure(c fiber.Ctx) bool {
	if c.Scheme() == "https" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.Get(fiber.HeaderXForwardedProto)), "https")
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
