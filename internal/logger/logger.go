// Package logger wraps zap for the service: a process-wide logger built from
// configuration, an Echo request-logging middleware and helpers to fetch the
// request-scoped logger.
package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and level.
type Config struct {
	Level       string
	Production  bool
	ServiceName string
}

var log *zap.Logger

// Init builds the global logger and installs it as zap's global.
func Init(cfg Config) *zap.Logger {
	var zc zap.Config
	if cfg.Production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level.SetLevel(level)

	l, err := zc.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	if cfg.ServiceName != "" {
		l = l.With(zap.String("service", cfg.ServiceName))
	}
	log = l
	zap.ReplaceGlobals(l)
	l.Info("logger initialized", zap.String("level", level.String()))
	return l
}

// Get returns the global logger, falling back to a no-op logger before Init.
func Get() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Middleware logs one line per HTTP request with the request-scoped logger.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zapcore.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if uid, ok := c.Get("user_id").(string); ok && uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}

			l := FromContext(c)
			switch {
			case err != nil:
				l.Error("http request failed", append(fields, zap.Error(err))...)
			case c.Response().Status >= 500:
				l.Error("http request completed", fields...)
			default:
				l.Info("http request completed", fields...)
			}
			return nil
		}
	}
}
