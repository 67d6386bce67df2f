// Command ocp-apac-2025-downloader pulls the presentation decks linked from
// the OCP APAC 2025 summit agenda, resolving Google Drive and Dropbox share
// links to their real binary payloads, and records provenance for every item.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/agenda"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/fetch"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/internal/report"
)

func main() {
	app := &cli.App{
		Name:  "ocp-apac-2025-downloader",
		Usage: "download presentation decks linked from the OCP APAC 2025 agenda",
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "extract the worklist from the agenda and download every artifact",
				Action: fetch.FetchAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "agenda-url", Usage: "agenda page URL to extract links from"},
					&cli.StringFlag{Name: "agenda-file", Usage: "local agenda HTML file (instead of --agenda-url)"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "output root directory", Value: "ocp-downloads"},
					&cli.StringFlag{Name: "prefer", Usage: "preferred mirror provider: gdrive or dropbox", Value: "gdrive"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "parallel download workers", Value: 4},
					&cli.IntFlag{Name: "retries", Usage: "attempt budget per URL", Value: 3},
					&cli.IntFlag{Name: "timeout", Usage: "per-request timeout in seconds", Value: 60},
					&cli.BoolFlag{Name: "insecure", Usage: "skip TLS certificate verification"},
					&cli.BoolFlag{Name: "zip", Usage: "package the output directory into a zip archive"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
					&cli.StringFlag{Name: "config", Usage: "YAML config file; flags override file values"},
				},
			},
			{
				Name:   "agenda",
				Usage:  "extract the worklist and print it as YAML without downloading",
				Action: agenda.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "agenda-url", Usage: "agenda page URL to extract links from"},
					&cli.StringFlag{Name: "agenda-file", Usage: "local agenda HTML file (instead of --agenda-url)"},
				},
			},
			{
				Name:   "report",
				Usage:  "rebuild the CSV manifest from a previous run's database",
				Action: report.Action,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "output root of the previous run", Value: "ocp-downloads"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
