package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// replHistory bounds the turns the line-mode chat carries.
const replHistory = 20

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Starts a conversation about the indexed documents. Earlier questions and
answers are sent along with each new question.

On a terminal this opens the full-screen chat:
  Enter     - Ask
  PgUp/PgDn - Scroll the transcript
  Tab       - Browse the extracted timeline
  F1        - Help
  Ctrl+C    - Quit

When input is piped, each line is a question and answers are printed in turn.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	if isTerminal(cmd) {
		return runTUI(cmd)
	}
	return runREPL(cmd)
}

// isTerminal reports whether the command reads from an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runTUI(cmd *cobra.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Query:    queryService,
		Timeline: timelineService,
		Index:    indexService,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runREPL answers one question per input line until EOF or "exit".
func runREPL(cmd *cobra.Command) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var history []domain.Turn

	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit", ":q":
			return nil
		}

		answer, err := queryService.Answer(cmd.Context(), question, history)
		if err != nil {
			if errors.Is(err, cmd.Context().Err()) {
				return err
			}
			cmd.Printf("Error: %s\n\n", describeError(err))
			continue
		}

		text := answer.Format()
		cmd.Println(text)
		cmd.Println()

		history = append(history,
			domain.Turn{Role: domain.TurnUser, Content: question},
			domain.Turn{Role: domain.TurnAssistant, Content: text},
		)
		if len(history) > replHistory {
			history = history[len(history)-replHistory:]
		}
	}
}
