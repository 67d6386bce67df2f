package agenda

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Action extracts the worklist from the agenda and prints it as YAML,
// without any downloading. Useful for checking what a fetch run would do.
func Action(c *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var html []byte
	var err error
	switch {
	case c.String("agenda-file") != "":
		html, err = Load(c.String("agenda-file"))
	case c.String("agenda-url") != "":
		html, err = Fetch(c.Context, c.String("agenda-url"))
	default:
		return fmt.Errorf("either --agenda-url or --agenda-file is required")
	}
	if err != nil {
		logger.Error("failed to load agenda", "error", err)
		os.Exit(2)
	}

	items, err := Parse(html)
	if err != nil {
		logger.Error("failed to parse agenda", "error", err)
		os.Exit(2)
	}

	out, err := yaml.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal worklist: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
