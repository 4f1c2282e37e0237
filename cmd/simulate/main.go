package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"well-bot-be/internal/pkg/logger"
	"well-bot-be/internal/service"
	"well-bot-be/pkg/card"
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/safety"
	"well-bot-be/pkg/session"
	"well-bot-be/pkg/topiccache"
	"well-bot-be/pkg/turn"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	userID     string
	sessionID  string
	scriptPath string
	warnAfter  time.Duration
	endAfter   time.Duration
	phrase     string
)

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the turn pipeline in memory",
	Long: `Runs utterances through safety, session gating, intent resolution and tool
dispatch without a database or model backend. Tools answer with stub cards.

Reads one utterance per line from --script, or from stdin when no script is given.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&userID, "user", uuid.NewString(), "user id")
	rootCmd.Flags().StringVar(&sessionID, "session", "sim-session", "session id")
	rootCmd.Flags().StringVar(&scriptPath, "script", "", "file with one utterance per line")
	rootCmd.Flags().DurationVar(&warnAfter, "warn-after", 30*time.Second, "inactivity before the first warning")
	rootCmd.Flags().DurationVar(&endAfter, "end-after", 60*time.Second, "inactivity before auto-end")
	rootCmd.Flags().StringVar(&phrase, "phrase", "hey well bot", "activation phrase")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	orchestrator, err := newPipeline()
	if err != nil {
		return err
	}

	in := os.Stdin
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	color.Cyan("🚀 Well-Bot simulation (session %s, say %q to start)\n", sessionID, phrase)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fmt.Printf("\nUSER: %s\n", text)

		env := card.NewEnvelope(uuid.NewString(), userID, "", sessionID, nil)
		printCard(orchestrator.Handle(ctx, turn.Request{Envelope: env, Text: text, Language: "en"}), false)
	}
	return scanner.Err()
}

func newPipeline() (*turn.Orchestrator, error) {
	log := logger.NewNopLogger()

	registry := turn.NewRegistry(turn.RegistryConfig{
		Session: session.Config{
			WarnAfter:           warnAfter,
			SecondWarnAfter:     warnAfter + (endAfter-warnAfter)/2,
			EndAfter:            endAfter,
			ActivationPhrase:    phrase,
			ActivationThreshold: 0.8,
		},
		TopicCache: topiccache.Config{Threshold: 0.78, TTL: 5 * time.Minute, HitCap: 3},
	}, func(_ string, c card.Card) { printCard(c, true) })

	gate := safety.NewGate(safety.DefaultRuleSet(10*time.Minute, 3), 50*time.Millisecond, log)

	return turn.NewOrchestrator(
		turn.Config{},
		registry,
		gate,
		intent.NewResolver(nil, 0, log),
		nil,
		echoResponder{},
		stubDispatch(),
		nil,
		log,
	)
}

// stubDispatch answers every tool intent with a card naming the tool and its args.
// Session tools are the real ones.
func stubDispatch() turn.Dispatch {
	sessions := service.NewSessionService()
	d := turn.Dispatch{}
	for _, i := range intent.All {
		if !i.IsTool() {
			continue
		}
		d[i] = turn.Entry{Tool: string(i), Handler: stub(string(i))}
	}
	d[intent.MeditationPlay] = turn.Entry{Tool: service.ToolMeditationPlay, Handler: stub(service.ToolMeditationPlay), Effect: turn.EffectSuspend}
	d[intent.MeditationStop] = turn.Entry{Tool: service.ToolMeditationCancel, Handler: stub(service.ToolMeditationCancel), Effect: turn.EffectResume}
	d[intent.SessionEnd] = turn.Entry{Tool: service.ToolSessionEnd, Handler: sessions.End, Effect: turn.EffectEndSession}
	return d
}

func stub(tool string) turn.Handler {
	return func(_ context.Context, env card.Envelope) (card.Card, error) {
		delete(env.Args, turn.ArgUtterance)
		return card.OK(tool, "Stub "+tool, fmt.Sprintf("args: %v", env.Args), nil), nil
	}
}

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, text string, _ []string) (string, error) {
	return "I hear you: " + text, nil
}

func printCard(c card.Card, async bool) {
	prefix := "BOT"
	if async {
		prefix = "BOT (timer)"
	}
	switch {
	case c.IsError():
		color.Red("%s [%s] %s: %s", prefix, c.Diagnostics.Tool, c.Title, c.Body)
	case c.Kind() == card.KindSupport:
		color.Magenta("%s [%s] %s: %s", prefix, c.Diagnostics.Tool, c.Title, c.Body)
	case async:
		color.Yellow("%s [%s] %s: %s", prefix, c.Diagnostics.Tool, c.Title, c.Body)
	default:
		color.Green("%s [%s] %s: %s", prefix, c.Diagnostics.Tool, c.Title, c.Body)
	}
	fmt.Printf("   kind=%s duration=%dms\n", c.Kind(), c.Diagnostics.DurationMs)
}
