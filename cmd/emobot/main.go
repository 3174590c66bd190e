package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emobotplus/emobot-client/internal/api"
	"github.com/emobotplus/emobot-client/internal/cache"
	"github.com/emobotplus/emobot-client/internal/config"
	"github.com/emobotplus/emobot-client/internal/logging"
	"github.com/emobotplus/emobot-client/internal/model/persona"
)

// app 聚合各命令共享的依赖。
type app struct {
	log      *logrus.Logger
	cfg      *config.Config
	cache    *cache.Store
	client   *api.Client
	personas *persona.MemoryStore
}

// setup 完成命令执行前的全部装配：.env、日志、配置、缓存、网关，
// 并从缓存恢复上一次的登录凭证。
func (a *app) setup() error {
	a.log = logging.New()

	if err := godotenv.Load(); err != nil {
		a.log.WithError(err).Debug("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.cache = cache.Open(cfg.Cache.Path)
	a.personas = persona.NewMemoryStore(persona.Seed())
	a.client = api.NewClient(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Policy:  api.Policy{MaxAttempts: cfg.API.MaxAttempts, BaseDelay: cfg.API.RetryDelay},
		Logger:  a.log,
	})

	// 恢复上次会话的凭证（尽力而为，后端仍可能判定过期）。
	var token string
	if a.cache.Get(cache.KeyToken, &token) && token != "" {
		var user api.User
		a.cache.Get(cache.KeyUser, &user)
		a.client.Credentials().Set(token, user)
	}
	return nil
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "emobot",
		Short:         "Emobot+ 命令行客户端",
		Long:          "Emobot+ 的命令行客户端：登录、心理测验、夥伴媒合与聊天。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.AddCommand(
		a.joinCmd(),
		a.profileCmd(),
		a.assessCmd(),
		a.matchCmd(),
		a.chooseCmd(),
		a.chatCmd(),
		a.healthCmd(),
	)

	if err := root.Execute(); err != nil {
		logrus.New().WithError(err).Error("command failed")
		os.Exit(1)
	}
}
