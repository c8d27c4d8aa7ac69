package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"leetcode-dash/internal/api"
	"leetcode-dash/internal/config"
	"leetcode-dash/internal/leetcode"
)

var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "fetch":
		err = cmdFetch(os.Args[2:])
	case "daily":
		err = cmdDaily(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("leetdash %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`leetdash - LeetCode progress from the terminal

Usage:
  leetdash <command> [arguments]

Commands:
  fetch <username> [--json]   Show a user's progress and recent submissions
  daily [--json]              Show today's daily challenge
  version                     Print the version

Requests go through the gateway at LEETCODE_PROXY_URL and fall back to
LeetCode directly when the gateway cannot be reached.`)
}

// newService builds a user service whose gateway tries the running proxy
// first and the upstream second.
func newService() (*api.UserService, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if os.Getenv("LEETDASH_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	proxy := leetcode.New(leetcode.Options{
		Endpoint: cfg.LeetCode.ProxyURL,
		Timeout:  cfg.LeetCode.Timeout,
	})
	direct := leetcode.New(leetcode.Options{
		Endpoint:  cfg.LeetCode.GraphQLEndpoint,
		Origin:    cfg.LeetCode.Origin,
		UserAgent: cfg.LeetCode.UserAgent,
		Timeout:   cfg.LeetCode.Timeout,
	})

	sessions := api.NewSessionBridge(cfg.Cache.SessionTTL, nil)
	if cfg.LeetCode.Session != "" {
		_ = sessions.Set(leetcode.Session{ID: cfg.LeetCode.Session, CSRFToken: cfg.LeetCode.CSRF})
	}

	gw := api.NewGateway(api.GatewayConfig{
		TTL:      cfg.Cache.TTL,
		LongTTL:  cfg.Cache.DailyTTL,
		Sessions: sessions,
		Logger:   logger,
	}, proxy, direct)

	svc := api.NewUserService(api.ServiceConfig{
		Gateway:      gw,
		Sessions:     sessions,
		RecentLimit:  cfg.LeetCode.RecentLimit,
		MockFallback: cfg.Upstream.MockFallback,
		Logger:       logger,
	})
	return svc, cfg, nil
}

func cmdFetch(args []string) error {
	username, asJSON := "", false
	for _, a := range args {
		switch a {
		case "--json":
			asJSON = true
		default:
			username = a
		}
	}
	if username == "" {
		return fmt.Errorf("usage: leetdash fetch <username> [--json]")
	}

	svc, cfg, err := newService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LeetCode.Timeout+5*time.Second)
	defer cancel()

	res, err := svc.FetchUserData(ctx, username)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(os.Stdout, res)
	}
	printResult(os.Stdout, res, time.Now())
	return nil
}

func cmdDaily(args []string) error {
	asJSON := len(args) > 0 && args[0] == "--json"

	svc, cfg, err := newService()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LeetCode.Timeout+5*time.Second)
	defer cancel()

	d, err := svc.Daily(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(os.Stdout, d)
	}
	printDaily(os.Stdout, d)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
