package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emobotplus/emobot-client/internal/cache"
	"github.com/emobotplus/emobot-client/internal/model/assessment"
	chatmodel "github.com/emobotplus/emobot-client/internal/model/chat"
	"github.com/emobotplus/emobot-client/internal/model/persona"
	persistsvc "github.com/emobotplus/emobot-client/internal/service/assessment"
	chatsvc "github.com/emobotplus/emobot-client/internal/service/chat"
	matchsvc "github.com/emobotplus/emobot-client/internal/service/match"
)

// joinCmd 登录（或注册）并把凭证写入缓存，后续命令自动带上。
func (a *app) joinCmd() *cobra.Command {
	var pid, nickname string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "以参与者编号与昵称登录",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid == "" {
				pid = a.cfg.API.PID
			}
			if nickname == "" {
				nickname = a.cfg.API.Nickname
			}
			if pid == "" || nickname == "" {
				return fmt.Errorf("pid and nickname are required (flags or EMOBOT_PID/EMOBOT_NICKNAME)")
			}

			res, err := a.client.Join(cmd.Context(), pid, nickname)
			if err != nil {
				return err
			}

			if err := a.cache.Put(cache.KeyToken, res.Token); err != nil {
				a.log.WithError(err).Debug("token cache write failed")
			}
			if err := a.cache.Put(cache.KeyUser, res.User); err != nil {
				a.log.WithError(err).Debug("user cache write failed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "歡迎，%s（#%d）\n", res.User.Nickname, res.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&pid, "pid", "", "参与者编号")
	cmd.Flags().StringVar(&nickname, "nickname", "", "昵称")
	return cmd
}

// profileCmd 显示当前用户资料。
func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "查看当前用户资料",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s（pid=%s, id=%d）\n", profile.User.Nickname, profile.User.PID, profile.User.ID)
			if profile.LatestAssessment != nil && profile.LatestAssessment.MBTI != nil {
				fmt.Fprintf(out, "最近測驗：%s %v\n", profile.LatestAssessment.MBTI.Raw, profile.LatestAssessment.MBTI.Encoded)
			}
			if profile.LatestRecommendation != nil && profile.LatestRecommendation.SelectedBot != "" {
				fmt.Fprintf(out, "已選夥伴：%s\n", profile.LatestRecommendation.SelectedBot)
			}
			return nil
		},
	}
}

// assessCmd 提交四字母类型测验结果。
func (a *app) assessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assess <LABEL>",
		Short: "提交心理测验结果（如 INFP）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := assessment.FromLabel(args[0], time.Now())
			if err != nil {
				return err
			}

			persister := persistsvc.NewPersister(a.client, a.log)
			if _, err := persister.Persist(cmd.Context(), rec); err != nil {
				return err
			}

			if err := a.cache.Put(cache.KeyStepMBTI, rec); err != nil {
				a.log.WithError(err).Debug("assessment cache write failed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "已保存：%s → %v\n", rec.RawLabel, rec.Encoded)
			return nil
		},
	}
}

// matchCmd 执行媒合并打印各夥伴的适配度。
func (a *app) matchCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "根据测验结果媒合 AI 夥伴",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := matchsvc.NewService(a.client, a.cache, a.log)
			scores, err := svc.Recommend(cmd.Context(), refresh)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, score := range scores {
				name := string(score.Type)
				if p, ok := a.personas.FindByKey(score.Type); ok {
					name = fmt.Sprintf("%s（%s）", p.Name, p.DisplayName)
				}
				fmt.Fprintf(out, "%6.1f  %s\n", score.Value, name)
			}

			if best, ok := matchsvc.Best(scores); ok {
				fmt.Fprintf(out, "\n推薦：%s（emobot choose %s）\n", best, best)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "忽略缓存，强制重新媒合")
	return cmd
}

// chooseCmd 提交最终选择的夥伴类型。
func (a *app) chooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "choose <type>",
		Short:     "选定 AI 夥伴（empathy/insight/solution/cognitive）",
		Args:      cobra.ExactArgs(1),
		ValidArgs: keyStrings(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := persona.Key(args[0])
			svc := matchsvc.NewService(a.client, a.cache, a.log)
			if err := svc.Commit(cmd.Context(), key); err != nil {
				return err
			}

			if p, ok := a.personas.FindByKey(key); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "已選擇 %s。%s\n", p.Name, p.Tagline)
			}
			return nil
		},
	}
}

// chatCmd 进入交互式聊天。输入 /voice 发送语音占位消息，exit 结束。
func (a *app) chatCmd() *cobra.Command {
	var botFlag, modeFlag string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "与已选择的 AI 夥伴聊天",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.pickPersona(botFlag)
			mode := chatmodel.ModeText
			if modeFlag == string(chatmodel.ModeVideo) {
				mode = chatmodel.ModeVideo
			}

			out := cmd.OutOrStdout()
			controller := chatsvc.NewController(a.client, chatsvc.Config{
				Persona:  p,
				Mode:     mode,
				Nickname: a.client.Credentials().User().Nickname,
				Logger:   a.log,
				OnNotice: func(n chatsvc.Notice) {
					fmt.Fprintf(out, "  [%s] %s\n", n.Kind, n.Message)
				},
			})

			controller.Start(cmd.Context())
			printNewMessages(out, controller, 0)
			printed := len(controller.Messages())

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "exit", "quit":
					return scanner.Err()
				case "/voice":
					line = chatmodel.VoicePlaceholder
				}

				if !controller.Send(cmd.Context(), line) {
					continue
				}
				printNewMessages(out, controller, printed)
				printed = len(controller.Messages())
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&botFlag, "bot", "", "夥伴类型，默认用 choose 的结果")
	cmd.Flags().StringVar(&modeFlag, "mode", string(chatmodel.ModeText), "会话模式：text 或 video")
	return cmd
}

// healthCmd 探测后端健康状态。
func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "检查后端是否可达",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

// pickPersona 依次采用 --bot、缓存的选择、历史默认值。
func (a *app) pickPersona(flag string) persona.Persona {
	if flag != "" {
		if p, ok := a.personas.FindByKey(persona.Key(flag)); ok {
			return p
		}
	}

	svc := matchsvc.NewService(a.client, a.cache, a.log)
	if key, ok := svc.Chosen(); ok {
		if p, ok := a.personas.FindByKey(key); ok {
			return p
		}
	}
	return a.personas.Default()
}

func printNewMessages(out io.Writer, c *chatsvc.Controller, from int) {
	messages := c.Messages()
	for _, m := range messages[from:] {
		if m.Sender != chatmodel.SenderAssistant {
			continue
		}
		fmt.Fprintf(out, "%s %s：%s\n", m.Clock(), c.Persona().Name, m.Content)
		for _, s := range m.Suggestions {
			fmt.Fprintf(out, "    · %s\n", s)
		}
	}
}

func keyStrings() []string {
	keys := persona.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
