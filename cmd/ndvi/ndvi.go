package ndvi

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/delange/planetary-computer-batch/catalog"
	"github.com/delange/planetary-computer-batch/cmd/util"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/ndvi"
	"github.com/delange/planetary-computer-batch/raster"
	putil "github.com/delange/planetary-computer-batch/util"
	"github.com/spf13/cobra"
)

// Options are the inputs of one index computation.
type Options struct {
	Red    string
	NIR    string
	Output string
}

// NewCommand returns the ndvi command
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	Run func(ctx context.Context, conf config.Config, opts Options, log *logger.Logger) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	hooks := &hooks{
		Run: Run,
	}

	var (
		configFile string
		dotenv     = ".env"
		flagConf   config.Config
		opts       Options
	)

	cmd := &cobra.Command{
		Use:   "ndvi",
		Short: "Compute the NDVI raster of one scene.",
		Long: `Compute the NDVI raster of one scene from its red and near-infrared band URLs.
The result is written to <output>.tif in the working directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, dotenv, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			logger.Configure(conf.Logger)
			logger.Debug("Loaded config", "file", configFile, "compute", conf.Compute)
			log := logger.NewLogger("ndvi", conf.Logger)
			ctx := putil.SignalContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			return hooks.Run(ctx, conf, opts, log)
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)

	f := cmd.Flags()
	f.StringVarP(&opts.Red, "red", "r", opts.Red, "URL of the red band")
	f.StringVarP(&opts.NIR, "nir", "n", opts.NIR, "URL of the near-infrared band")
	f.StringVarP(&opts.Output, "output", "o", opts.Output, "Output file name, without extension")
	f.AddFlagSet(util.ConfigFlags(&configFile, &dotenv))
	f.AddFlagSet(util.LoggerFlags(&flagConf))
	f.StringVar(&flagConf.Catalog.SignURL, "sign-url", flagConf.Catalog.SignURL, "Planetary Computer SAS API URL")
	for _, name := range []string{"red", "nir", "output"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd, hooks
}

// Run signs the band URLs, computes the index and writes the output raster.
func Run(ctx context.Context, conf config.Config, opts Options, log *logger.Logger) error {
	signer := catalog.NewSigner(conf.Catalog, log.Sub("sign"))
	g := raster.NewGDAL()
	_, err := ndvi.NewTask(signer, g, g, log).Run(ctx, opts.Red, opts.NIR, opts.Output)
	return err
}
