package submit

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/delange/planetary-computer-batch/catalog"
	"github.com/delange/planetary-computer-batch/cmd/util"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/submit"
	putil "github.com/delange/planetary-computer-batch/util"
	"github.com/delange/planetary-computer-batch/version"
	"github.com/spf13/cobra"
)

// NewCommand returns the submit command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, log *logger.Logger) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		dotenv     = ".env"
		flagConf   config.Config
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Search the catalog and queue one NDVI task per scene.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, dotenv, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			if err := config.Validate(conf); err != nil {
				return fmt.Errorf("invalid config: %v", err)
			}

			logger.Configure(conf.Logger)
			logger.Debug("Loaded config", "file", configFile, "compute", conf.Compute)
			log := logger.NewLogger("submit", conf.Logger)
			ctx := putil.SignalContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			return hooks.Run(ctx, conf, log)
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)

	f := cmd.Flags()
	f.AddFlagSet(util.ConfigFlags(&configFile, &dotenv))
	f.AddFlagSet(util.SearchFlags(&flagConf))
	f.AddFlagSet(util.SubmitFlags(&flagConf))
	f.AddFlagSet(util.LoggerFlags(&flagConf))

	return cmd, hooks
}

// Run searches the catalog and submits the job and its tasks to the
// configured compute backend.
func Run(ctx context.Context, conf config.Config, log *logger.Logger) error {
	log.Info("Version", version.LogFields()...)

	backend, err := submit.NewBackend(ctx, conf, log)
	if err != nil {
		return err
	}

	searcher := catalog.NewClient(conf.Catalog, log.Sub("catalog"))
	s, err := submit.NewSubmitter(conf, searcher, backend, log)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Run(ctx)
	if perr := s.Metrics().Push(context.Background()); perr != nil {
		log.Warn("Pushing metrics failed", perr)
	}
	if err != nil {
		return err
	}

	log.Info("Submitted job", "jobID", res.JobID, "scenes", len(res.Scenes), "tasks", len(res.Tasks))
	return nil
}
