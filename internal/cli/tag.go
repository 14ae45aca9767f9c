package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/happyhackingspace/seqtag"
	"github.com/spf13/cobra"
)

const modelURL = "https://huggingface.co/datasets/happyhackingspace/seqtag/resolve/main/model.json"

func (c *CLI) newTagCommand() *cobra.Command {
	var modelPath string
	var plainText bool

	cmd := &cobra.Command{
		Use:   "tag [url-or-file]",
		Short: "Tag the visible text of a URL, HTML file, or stdin",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Tag a URL directly
  seqtag tag https://example.com/news

  # Tag a local HTML file
  seqtag tag article.html

  # Pipe HTML content
  curl -s https://example.com/news | seqtag tag

  # Tag plain text instead of HTML
  echo "john smith lives in paris" | seqtag tag --text

  # Use custom model file
  seqtag tag article.html --model custom.json

  # Verbose mode with debug output
  seqtag tag article.html -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			var target string
			var err error

			if len(args) == 0 {
				if isStdinTerminal() {
					return cmd.Help()
				}
				content, target, err = readFromStdin()
				if err != nil {
					return err
				}
			} else {
				target = args[0]
				slog.Debug("Fetching input", "target", target)
				content, err = fetchContent(target)
				if err != nil {
					return err
				}
			}
			slog.Debug("Input read", "target", target, "bytes", len(content))

			start := time.Now()
			t, err := loadOrDownloadModel(modelPath)
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "duration", time.Since(start))

			start = time.Now()
			if plainText {
				tokens, tags, err := t.TagText(content)
				if err != nil {
					return err
				}
				slog.Debug("Tagging completed", "tokens", len(tokens), "duration", time.Since(start))
				return printJSON(seqtag.BlockResult{Tokens: tokens, Tags: tags})
			}

			results, err := t.TagHTML(content)
			if err != nil {
				return err
			}
			slog.Debug("Tagging completed", "blocks", len(results), "duration", time.Since(start))
			if len(results) == 0 {
				fmt.Println("No visible text found.")
				return nil
			}
			return printJSON(results)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: auto-detect or download)")
	cmd.Flags().BoolVar(&plainText, "text", false, "Treat the input as plain text rather than HTML")
	return cmd
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func loadOrDownloadModel(modelPath string) (*seqtag.Tagger, error) {
	if modelPath != "" {
		slog.Debug("Loading custom model", "path", modelPath)
		return seqtag.Load(modelPath)
	}

	t, err := seqtag.New()
	if err == nil {
		return t, nil
	}

	dest := filepath.Join(seqtag.ModelDir(), "model.json")
	if _, statErr := os.Stat(dest); statErr == nil {
		return seqtag.Load(dest)
	}
	slog.Info("Model not found, downloading", "url", modelURL, "dest", dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	resp, err := http.Get(modelURL)
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download model: HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create model file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return nil, fmt.Errorf("download model: %w", err)
	}
	_ = f.Close()

	slog.Info("Model downloaded", "size", fmt.Sprintf("%.1fMB", float64(written)/1024/1024))
	return seqtag.Load(dest)
}

func fetchContent(target string) (string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		resp, err := http.Get(target)
		if err != nil {
			return "", fmt.Errorf("fetch URL: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		return string(body), nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func readFromStdin() (string, string, error) {
	slog.Debug("Reading from stdin")
	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	content := strings.TrimSpace(string(body))
	if content == "" {
		return "", "", fmt.Errorf("stdin is empty")
	}

	if strings.HasPrefix(content, "http://") || strings.HasPrefix(content, "https://") {
		slog.Debug("Stdin contains URL", "url", content)
		html, err := fetchContent(content)
		if err != nil {
			return "", "", err
		}
		return html, content, nil
	}

	return content, "stdin", nil
}
