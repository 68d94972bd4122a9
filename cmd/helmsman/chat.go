package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/helmlabs/helmsman/internal/agent"
	"github.com/helmlabs/helmsman/internal/config"
	"github.com/helmlabs/helmsman/internal/logging"
)

// ChatCmd creates the chat command (agent client)
func ChatCmd() *cobra.Command {
	var (
		endpoint      string
		advancedTools bool
		undetected    bool
	)

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Chat with the browsing agent",
		Long: `Send a task to the browsing agent. Without a prompt an interactive
session starts; queries in one session share the conversation.

By default the tool server is spawned as a subprocess and spoken to over
stdio. Use --endpoint to talk to a server already running with the http
transport.

Examples:
  helmsman chat "Open example.com and summarize the page"
  helmsman chat --model gpt-4.1 "Search for Go release notes"
  helmsman chat --endpoint http://localhost:8050/mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("model") {
				Cfg.Agent.Model, _ = f.GetString("model")
			}
			if f.Changed("max-iterations") {
				Cfg.Agent.MaxIterations, _ = f.GetInt("max-iterations")
			}
			if f.Changed("server-cmd") {
				Cfg.Agent.ServerCommand, _ = f.GetStringSlice("server-cmd")
			}
			return runChat(*Cfg, endpoint, advancedTools, undetected, args)
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "MCP endpoint of a running tool server")
	cmd.Flags().String("model", "", "model that drives the browser")
	cmd.Flags().Int("max-iterations", 0, "model rounds allowed per query")
	cmd.Flags().StringSlice("server-cmd", nil, "command that starts the tool server subprocess")
	cmd.Flags().BoolVar(&advancedTools, "advanced-tools", false, "start the spawned server with the advanced tier exposed")
	cmd.Flags().BoolVar(&undetected, "undetected", false, "start the spawned server in undetected mode")

	return cmd
}

func runChat(c config.Config, endpoint string, advancedTools, undetected bool, args []string) error {
	if err := logging.SetFile(c.Logging.Dir, "client.log", c.Logging.Quiet); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logging.Infof("Starting chat session %s", uuid.NewString())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted")
		cancel()
	}()

	client, err := connectToolServer(ctx, c, endpoint, advancedTools, undetected)
	if err != nil {
		return err
	}
	defer client.Close()

	provider := agent.NewOpenAIProvider("", c.Agent.Model)
	loop := agent.NewLoop(provider, client, agent.Options{
		MaxIterations: c.Agent.MaxIterations,
	})

	if len(args) > 0 {
		return runOnce(ctx, loop, strings.Join(args, " "))
	}
	return runInteractive(ctx, loop)
}

// connectToolServer spawns the tool server as a subprocess unless an
// endpoint points at a running one.
func connectToolServer(ctx context.Context, c config.Config, endpoint string, advancedTools, undetected bool) (*agent.MCPToolClient, error) {
	if endpoint != "" {
		return agent.ConnectHTTP(ctx, endpoint)
	}
	command := c.Agent.ServerCommand
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("cannot locate own binary for the tool server: %w", err)
		}
		command = []string{exe, "serve", "--quiet"}
	}
	if advancedTools {
		command = append(command, "--advanced-tools")
	}
	if undetected {
		command = append(command, "--undetected")
	}
	return agent.ConnectCommand(ctx, command[0], command[1:]...)
}

// runOnce runs a single prompt
func runOnce(ctx context.Context, loop *agent.Loop, prompt string) error {
	answer, err := loop.ProcessQuery(ctx, prompt, false)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

// runInteractive reads queries until QUIT or EOF
func runInteractive(ctx context.Context, loop *agent.Loop) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println("Enter message, or type QUIT to end:")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			return nil
		}

		answer, err := loop.ProcessQuery(ctx, line, false)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, agent.ErrIterationLimit) {
				fmt.Println("Stopped: the model kept requesting tools without finishing. Try a narrower task.")
				continue
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
}
