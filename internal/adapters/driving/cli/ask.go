package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question",
	Long: `Answers one question from the indexed documents and prints the sources it
used. Timeline questions such as "what is due in August?" are answered from
the extracted timeline when it has matching records.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}
	if err := ensureIndex(cmd); err != nil {
		return err
	}

	answer, err := queryService.Answer(cmd.Context(), args[0], nil)
	if err != nil {
		return errors.New(describeError(err))
	}

	if askJSON {
		data, err := json.MarshalIndent(answerJSON(answer), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Println(answer.Format())
	return nil
}

type sourceOutput struct {
	File string `json:"file"`
	Page int    `json:"page,omitempty"`
}

type answerOutput struct {
	Answer     string         `json:"answer"`
	Sources    []sourceOutput `json:"sources"`
	Structured bool           `json:"structured"`
	NoSources  bool           `json:"no_sources"`
}

func answerJSON(a domain.Answer) answerOutput {
	out := answerOutput{
		Answer:     a.Text,
		Sources:    make([]sourceOutput, len(a.Sources)),
		Structured: a.Structured,
		NoSources:  a.NoSources,
	}
	for i, s := range a.Sources {
		out.Sources[i] = sourceOutput{File: s.File, Page: s.Page}
	}
	return out
}

// describeError turns a query failure into a message for the terminal.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationTimeout):
		return "the model took too long to answer (raise llm.timeout): " + err.Error()
	case errors.Is(err, domain.ErrIndexNotFound), errors.Is(err, domain.ErrIndexStale):
		return "no usable index, run 'docqa index' first: " + err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return "the model provider is rate limiting requests: " + err.Error()
	case errors.Is(err, domain.ErrRetrievalFailed), errors.Is(err, domain.ErrEmbeddingFailed):
		return "searching the index failed: " + err.Error()
	case errors.Is(err, domain.ErrGenerationFailed):
		return "the model call failed: " + err.Error()
	default:
		return err.Error()
	}
}
