package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/order-desk-assistant/agent/agents/assistant"
	"github.com/tanpawarit/order-desk-assistant/agent/agents/dispatcher"
	llmx "github.com/tanpawarit/order-desk-assistant/agent/llm"
	notifyx "github.com/tanpawarit/order-desk-assistant/agent/notify"
	statex "github.com/tanpawarit/order-desk-assistant/agent/state"
	storex "github.com/tanpawarit/order-desk-assistant/agent/store"
	toolx "github.com/tanpawarit/order-desk-assistant/agent/tool"
	"github.com/tanpawarit/order-desk-assistant/dashboard"
	configx "github.com/tanpawarit/order-desk-assistant/pkg/config"
	kafkax "github.com/tanpawarit/order-desk-assistant/pkg/kafka"
	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
	_ "github.com/tanpawarit/order-desk-assistant/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/order-desk-assistant/pkg/openrouter"
	qstashx "github.com/tanpawarit/order-desk-assistant/pkg/qstash"
)

const replSessionID = "console"

func main() {
	serve := flag.Bool("serve", false, "run the dashboard HTTP server instead of the console chat")

	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *serve); err != nil {
		log.Fatal().Err(err).Msg("order desk assistant stopped")
	}
}

func run(ctx context.Context, serve bool) error {
	dbCfg := configx.MustNew[storex.Config]("DB")
	store, err := storex.Open(*dbCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	events, closeEvents, err := newPublisher()
	if err != nil {
		return err
	}
	defer closeEvents()

	registry := toolx.NewRegistry(toolx.NewService(store, events))

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	disp, err := dispatcher.NewFromConfig(ctx, *llmCfg, registry)
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	historyCfg := configx.MustNew[statex.Config]("HISTORY")
	history, err := newHistoryStore(*historyCfg)
	if err != nil {
		return err
	}

	desk, err := assistant.New(history, disp, assistant.Config{MaxTurns: historyCfg.MaxTurns})
	if err != nil {
		return err
	}

	if !serve {
		return runConsole(ctx, desk)
	}

	httpCfg := configx.MustNew[dashboard.Config]("HTTP")
	client := openrouterx.NewClient(llmCfg.OpenRouter())
	probe := func(ctx context.Context) error {
		return openrouterx.Ping(ctx, client, llmCfg.Model)
	}
	srv, err := dashboard.New(*httpCfg, store, desk, llmCfg.Model, probe)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func newPublisher() (notifyx.Publisher, func(), error) {
	eventsCfg := configx.MustNew[notifyx.Config]("EVENTS")

	switch eventsCfg.Normalized() {
	case notifyx.SinkKafka:
		kafkaCfg := configx.MustNew[kafkax.Config]("KAFKA")
		producer, err := kafkax.NewProducer(*kafkaCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create kafka producer: %w", err)
		}
		closeFn := func() {
			if err := producer.Close(); err != nil {
				log.Warn().Err(err).Msg("close kafka producer")
			}
		}
		return notifyx.NewKafkaPublisher(producer), closeFn, nil
	case notifyx.SinkQStash:
		qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
		client := qstashx.MustNew(*qstashCfg)
		return notifyx.NewQStashPublisher(client, qstashCfg.Destination), func() {}, nil
	default:
		return notifyx.Noop{}, func() {}, nil
	}
}

func newHistoryStore(cfg statex.Config) (statex.Store, error) {
	if strings.ToLower(strings.TrimSpace(cfg.Backend)) != statex.BackendUpstash {
		return statex.NewMemoryStore(), nil
	}
	redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	store, err := statex.NewUpstashRedisStore(*redisCfg, statex.WithTTL(cfg.TTL))
	if err != nil {
		return nil, fmt.Errorf("create upstash history store: %w", err)
	}
	return store, nil
}

func runConsole(ctx context.Context, desk *assistant.Assistant) error {
	fmt.Println("Order desk assistant. Type 'reset' to clear history, 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "reset":
			if err := desk.Reset(ctx, replSessionID); err != nil {
				log.Warn().Err(err).Msg("reset history")
			}
			fmt.Println("History cleared.")
			continue
		}

		fmt.Println(desk.Run(ctx, replSessionID, line))
	}
}
