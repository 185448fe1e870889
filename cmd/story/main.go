package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prologue-labs/storyledger/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL   string
	cfgFile     string
	authorToken string
	adminSecret string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "story",
	Short: "StoryLedger CLI",
	Long: `story is the command-line interface for a StoryLedger service.

It lets you create chapters, append words, and read story state from a
running ledgerd instance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.story")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if authorToken == "" {
			authorToken = viper.GetString("author_token")
		}
		if adminSecret == "" {
			adminSecret = viper.GetString("admin_secret")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.story/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "ledgerd base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&authorToken, "token", "", "author bearer token (or author_token in config)")
	rootCmd.PersistentFlags().StringVar(&adminSecret, "admin-secret", "", "admin secret (or admin_secret in config)")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	opts := []client.Option{}
	if authorToken != "" {
		opts = append(opts, client.WithAuthorToken(authorToken))
	}
	if adminSecret != "" {
		opts = append(opts, client.WithAdminSecret(adminSecret))
	}
	return client.New(serverURL, opts...)
}

// ── create ───────────────────────────────────────────────────────────────────

var (
	createTitle    string
	createCapacity int
	createPrice    string
)

var createCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Create a new chapter (requires --admin-secret)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := newClient().CreateChapter(context.Background(), &client.CreateChapterRequest{
			Slug:      args[0],
			Title:     createTitle,
			Capacity:  createCapacity,
			UnitPrice: createPrice,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created chapter %q (capacity %d, unit price %s)\n", ch.Slug, ch.Capacity, ch.UnitPrice)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "Chapter title")
	createCmd.Flags().IntVar(&createCapacity, "capacity", 0, "Maximum number of words")
	createCmd.Flags().StringVar(&createPrice, "price", "0", "Unit price per word")
	createCmd.MarkFlagRequired("title")    //nolint:errcheck
	createCmd.MarkFlagRequired("capacity") //nolint:errcheck
}

// ── append ───────────────────────────────────────────────────────────────────

var appendPayment string

var appendCmd = &cobra.Command{
	Use:   "append <slug> <word>",
	Short: "Append one word to a chapter (requires --token)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().Append(context.Background(), args[0], args[1], appendPayment)
		if err != nil {
			return err
		}
		fmt.Printf("appended %q at index %d (token %d minted to %s)\n",
			res.Entry.Content, res.SequenceIndex, res.SequenceIndex, res.Entry.Author)
		return nil
	},
}

func init() {
	appendCmd.Flags().StringVar(&appendPayment, "payment", "0", "Payment amount (must cover the chapter's unit price)")
}

// ── read ─────────────────────────────────────────────────────────────────────

var (
	readStart int
	readCount int
	readJSON  bool
)

var readCmd = &cobra.Command{
	Use:   "read <slug>",
	Short: "Read a segment of a chapter's words",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := newClient().Segment(context.Background(), args[0], readStart, readCount)
		if err != nil {
			return err
		}
		if readJSON {
			return json.NewEncoder(os.Stdout).Encode(words)
		}
		for i, w := range words {
			fmt.Printf("%4d  %s\n", readStart+i, w)
		}
		return nil
	},
}

func init() {
	readCmd.Flags().IntVar(&readStart, "start", 0, "First sequence index to read")
	readCmd.Flags().IntVar(&readCount, "count", -1, "Number of words to read (-1 = to the end)")
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output as JSON")
}

// ── status ───────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status <slug>",
	Short: "Show a chapter's word count and completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		ch, err := c.GetChapter(ctx, args[0])
		if err != nil {
			return err
		}
		st, err := c.Status(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("chapter:   %s (%s)\n", ch.Slug, ch.Title)
		fmt.Printf("words:     %d / %d\n", st.WordCount, ch.Capacity)
		fmt.Printf("price:     %s per word\n", ch.UnitPrice)
		fmt.Printf("complete:  %v\n", st.Complete)
		return nil
	},
}

// ── text ─────────────────────────────────────────────────────────────────────

var textCmd = &cobra.Command{
	Use:   "text <slug>",
	Short: "Print the chapter's full text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := newClient().FullText(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

// ── token ────────────────────────────────────────────────────────────────────

var tokenOwner string

var tokenCmd = &cobra.Command{
	Use:   "token <slug> [token-id]",
	Short: "Look up token ownership within a chapter",
	Long: `With a token id, prints the owner of that token. With --owner,
lists every token id minted to that address in the chapter.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		if tokenOwner != "" {
			tokens, err := c.TokensOf(ctx, args[0], tokenOwner)
			if err != nil {
				return err
			}
			fmt.Printf("%s owns %d token(s): %v\n", tokenOwner, len(tokens), tokens)
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("a token id or --owner is required")
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("token id must be an integer: %w", err)
		}
		owner, err := c.TokenOwner(ctx, args[0], id)
		if err != nil {
			return err
		}
		fmt.Printf("token %d is owned by %s\n", id, owner)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "List token ids minted to this address")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the story CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("story", version)
	},
}
