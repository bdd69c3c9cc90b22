package main

import (
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fiffu/watchdog/app"
	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib"
	"github.com/fiffu/watchdog/lib/monitor"
	"github.com/fiffu/watchdog/lib/prober"
	"github.com/fiffu/watchdog/lib/store"
	"github.com/fiffu/watchdog/senders"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   "logs/watchdog.log",
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, zap.InfoLevel)
		return zap.New(core), nil
	}
}

func main() {
	fx.New(
		fx.Provide(NewLogger),
		fx.Provide(config.NewConfig),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),

		fx.Provide(store.NewWebsites),
		fx.Provide(store.NewLedger),
		fx.Provide(store.NewUsers),

		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(senders.NewDispatcher),
		fx.Provide(prober.NewProber),

		fx.Provide(monitor.NewMonitor),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*monitor.Monitor) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
