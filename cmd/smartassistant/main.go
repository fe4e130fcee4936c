package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"smartassistant/internal/agent"
	"smartassistant/internal/config"
	"smartassistant/internal/httpapi"
	"smartassistant/internal/llm"
	"smartassistant/internal/memory"
	"smartassistant/internal/observability"
	"smartassistant/internal/session"
	"smartassistant/internal/tools"
	"smartassistant/internal/weather"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP API instead of the interactive console")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	dial := func(baseURL string) llm.Client {
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:     cfg.DeepSeekAPIKey,
			BaseURL:    baseURL,
			Model:      cfg.ChatModel,
			Timeout:    cfg.LLMTimeout,
			HTTPProxy:  cfg.HTTPProxy,
			HTTPSProxy: cfg.HTTPSProxy,
		})
	}
	model := llm.NewFailoverClient(cfg.ChatBaseURL, config.AlternateBaseURL(cfg.ChatBaseURL), dial)
	model.OnEndpointSwitch = func(endpoint string) {
		metrics.ObserveEndpointSwitch(endpoint)
		log.Printf("chat endpoint switched to %s", endpoint)
	}

	weatherClient := weather.New(weather.Config{
		APIKey:  cfg.WeatherAPIKey,
		APIHost: cfg.WeatherAPIHost,
		APIType: cfg.WeatherAPIType,
	})

	weatherRegistry := tools.NewRegistry(weather.ToolDefinition(weatherClient))
	weatherRegistry.OnDispatch = metrics.ObserveToolDispatch
	financeRegistry := tools.NewRegistry(tools.FinanceDefinitions()...)
	financeRegistry.OnDispatch = metrics.ObserveToolDispatch

	factory := func(kind session.AgentKind) (agent.Agent, *memory.Log, error) {
		conversation := memory.NewLog()
		switch kind {
		case session.KindWeather:
			return agent.NewWeatherAgent(model, weatherRegistry), conversation, nil
		case session.KindFinance:
			fa := agent.NewFinanceAgent(model, financeRegistry, conversation)
			fa.OnFallback = metrics.ObserveFallback
			return fa, conversation, nil
		default:
			return nil, nil, fmt.Errorf("unknown agent kind %q", kind)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		runServe(ctx, cfg, metrics, factory)
		return
	}
	runConsole(ctx, factory)
}

func runServe(ctx context.Context, cfg config.Config, metrics *observability.Metrics, factory session.Factory) {
	sessions := session.NewManager(factory, cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(s *session.Session) {
		metrics.ActiveSessions.Dec()
		log.Printf("session %s (%s) expired after inactivity", s.ID, s.Kind)
	})
	sessions.StartJanitor(ctx, 0)

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: httpapi.New(sessions, metrics).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.BindAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func runConsole(ctx context.Context, factory session.Factory) {
	weatherAgent, _, err := factory(session.KindWeather)
	if err != nil {
		log.Fatalf("weather agent init failed: %v", err)
	}
	// One finance conversation per process run, matching one console session.
	financeAgent, _, err := factory(session.KindFinance)
	if err != nil {
		log.Fatalf("finance agent init failed: %v", err)
	}

	sc := bufio.NewScanner(os.Stdin)
	fmt.Println("=== SmartAssistantAgent 已启动 ===")
	fmt.Println("1. 天气查询 Agent")
	fmt.Println("2. 理财小助手 Agent")
	fmt.Println("输入数字选择 Agent，输入 exit 退出。")

	for {
		fmt.Print("\n请选择 Agent（1/2 或 exit）：")
		if !sc.Scan() {
			return
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "exit", "quit":
			fmt.Println("再见～")
			return
		case "1":
			fmt.Println("\n【天气 Agent】已启动，输入城市相关问题，back 返回主菜单。")
			agentLoop(ctx, sc, "天气Agent", weatherAgent)
		case "2":
			fmt.Println("\n【理财 Agent】已启动，可以跟我聊你的收入、风险偏好等，back 返回主菜单。")
			agentLoop(ctx, sc, "理财Agent", financeAgent)
		default:
			fmt.Println("请输入 1 / 2 或 exit。")
		}
	}
}

func agentLoop(ctx context.Context, sc *bufio.Scanner, label string, ag agent.Agent) {
	for {
		fmt.Print("你：")
		if !sc.Scan() {
			return
		}
		input := strings.TrimSpace(sc.Text())
		switch strings.ToLower(input) {
		case "back", "exit", "quit":
			fmt.Println("返回主菜单。")
			return
		case "":
			continue
		}
		reply, err := ag.Reply(ctx, input)
		if err != nil {
			fmt.Printf("%s：请求失败：%v\n", label, err)
			continue
		}
		fmt.Printf("%s：%s\n", label, reply)
	}
}
