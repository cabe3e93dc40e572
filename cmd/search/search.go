package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/delange/planetary-computer-batch/catalog"
	"github.com/delange/planetary-computer-batch/cmd/util"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	putil "github.com/delange/planetary-computer-batch/util"
	"github.com/spf13/cobra"
)

// NewCommand returns the search command
func NewCommand() *cobra.Command {
	var (
		configFile string
		dotenv     = ".env"
		flagConf   config.Config
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog and print the matching scenes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, dotenv, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			logger.Configure(conf.Logger)
			logger.Debug("Loaded config", "file", configFile, "compute", conf.Compute)
			log := logger.NewLogger("search", conf.Logger)
			ctx := putil.SignalContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			return Run(ctx, conf, cmd.OutOrStdout(), asJSON, log)
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)

	f := cmd.Flags()
	f.AddFlagSet(util.ConfigFlags(&configFile, &dotenv))
	f.AddFlagSet(util.SearchFlags(&flagConf))
	f.AddFlagSet(util.LoggerFlags(&flagConf))
	f.BoolVar(&asJSON, "json", asJSON, "Print scenes as JSON lines")

	return cmd
}

type sceneSummary struct {
	ID         string            `json:"id"`
	Datetime   time.Time         `json:"datetime"`
	CloudCover float64           `json:"cloudCover"`
	Assets     map[string]string `json:"assets"`
}

// Run searches the catalog and writes one line per scene to w.
func Run(ctx context.Context, conf config.Config, w io.Writer, asJSON bool, log *logger.Logger) error {
	f, err := catalog.NewFilter(conf.Search, time.Now())
	if err != nil {
		return err
	}
	for _, d := range f.Defaulted {
		log.Info("Invalid or missing search input, using default", "field", d)
	}

	scenes, err := catalog.NewClient(conf.Catalog, log).Search(ctx, f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, s := range scenes {
		if asJSON {
			err = enc.Encode(sceneSummary{
				ID:         s.ID,
				Datetime:   s.Datetime,
				CloudCover: s.CloudCover,
				Assets: map[string]string{
					conf.Task.RedBand: s.Assets[conf.Task.RedBand],
					conf.Task.NIRBand: s.Assets[conf.Task.NIRBand],
				},
			})
		} else {
			_, err = fmt.Fprintf(w, "%s\t%s\t%.2f\n", s.ID, s.Datetime.Format(time.RFC3339), s.CloudCover)
		}
		if err != nil {
			return err
		}
	}
	log.Info("Found scenes", "count", len(scenes), "dateRange", f.DateRange())
	return nil
}
