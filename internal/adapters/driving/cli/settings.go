package cli

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the documents folder, index, retrieval, timeline and AI
provider settings.

Values come from the built-in defaults, then the config file, then
DOCQA_<SECTION>_<KEY> environment variables.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single dotted key and save the config file.

Examples:
  docqa settings set documents.dir ~/Documents/decks
  docqa settings set retrieval.k 8
  docqa settings set llm.timeout 90s`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and ping the AI providers",
	RunE:  runSettingsValidate,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the provider used to embed chunks and questions.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Interactively choose the provider that writes answers.`,
	RunE:  runSettingsLLM,
}

func init() {
	for _, c := range []*cobra.Command{settingsCmd, settingsShowCmd, settingsSetCmd, settingsValidateCmd, settingsEmbeddingCmd, settingsLLMCmd} {
		c.Annotations = map[string]string{settingsOnly: "true"}
	}
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	values, err := settingsService.Effective()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	section := ""
	for _, key := range slices.Sorted(maps.Keys(values)) {
		head, _, _ := strings.Cut(key, ".")
		if head != section {
			if section != "" {
				cmd.Println()
			}
			cmd.Printf("[%s]\n", head)
			section = head
		}
		cmd.Printf("  %s = %v\n", key, values[key])
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if _, err := settingsService.Get(); err != nil {
		return fmt.Errorf("saved, but settings are now invalid: %w", err)
	}
	cmd.Printf("%s = %s\n", key, displayValue(key, value))
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if _, err := settingsService.Get(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cmd.Println("Settings: OK")

	var failed bool
	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}
	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	if failed {
		return errors.New("provider validation failed")
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), providerPrompt{
		label:    "embedding",
		supports: domain.AIProvider.SupportsEmbedding,
		models:   domain.DefaultEmbeddingModels(),
		validate: settingsService.ValidateEmbeddingConfig,
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), providerPrompt{
		label:    "llm",
		supports: domain.AIProvider.SupportsLLM,
		models:   domain.DefaultLLMModels(),
		validate: settingsService.ValidateLLMConfig,
	})
}

// providerPrompt describes one of the two provider sections.
type providerPrompt struct {
	label    string
	supports func(domain.AIProvider) bool
	models   map[domain.AIProvider]string
	validate func() error
}

var allProviders = []domain.AIProvider{
	domain.AIProviderOllama,
	domain.AIProviderOpenAI,
	domain.AIProviderGoogle,
	domain.AIProviderHashing,
	domain.AIProviderMock,
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, p providerPrompt) error {
	var providers []domain.AIProvider
	for _, provider := range allProviders {
		if p.supports(provider) {
			providers = append(providers, provider)
		}
	}

	cmd.Printf("Select %s provider\n", p.label)
	for i, provider := range providers {
		cmd.Printf("  %d. %s\n", i+1, provider.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selected := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	defaultModel := p.models[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.Set(p.label+".provider", string(selected)); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", p.label, err)
	}
	if err := settingsService.Set(p.label+".model", model); err != nil {
		return fmt.Errorf("failed to configure %s model: %w", p.label, err)
	}
	if apiKey != "" {
		if err := settingsService.Set(p.label+".api_key", apiKey); err != nil {
			return fmt.Errorf("failed to store %s API key: %w", p.label, err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := p.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", p.label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", strings.ToUpper(p.label[:1])+p.label[1:], selected.Description(), model)
	if apiKey != "" {
		cmd.Printf("API key: %s\n", maskAPIKey(apiKey))
	}
	return nil
}

// displayValue hides secrets echoed back by settings set.
func displayValue(key, value string) string {
	if strings.HasSuffix(key, ".api_key") {
		return maskAPIKey(value)
	}
	return value
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to a plain line.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
