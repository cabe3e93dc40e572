package util

import (
	"github.com/delange/planetary-computer-batch/config"
	"github.com/spf13/pflag"
)

// ConfigFlags returns the flags selecting the config and dotenv files.
func ConfigFlags(configFile, dotenv *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)
	f.StringVarP(configFile, "config", "c", *configFile, "Config File")
	f.StringVar(dotenv, "env-file", *dotenv, "Load credentials from this dotenv file if it exists")
	return f
}

// SearchFlags returns a new flag set for the catalog search input.
func SearchFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Search.Satellite, "satellite", flagConf.Search.Satellite, "Satellite collection [Sentinel2]")
	f.StringVar(&flagConf.Search.PostProcessing, "post-processing", flagConf.Search.PostProcessing, "Post-processing [NDVI]")
	f.StringVar(&flagConf.Search.Coordinates, "coordinates", flagConf.Search.Coordinates,
		"Search area as lowerleft_lat,lowerleft_lon,upperright_lat,upperright_lon")
	f.StringVar(&flagConf.Search.DateRangeStart, "start", flagConf.Search.DateRangeStart, "First date of the search, YYYY-MM-DD")
	f.StringVar(&flagConf.Search.DateRangeEnd, "end", flagConf.Search.DateRangeEnd, "Last date of the search, YYYY-MM-DD")
	f.StringVar(&flagConf.Search.CloudCover, "cloud-cover", flagConf.Search.CloudCover, "Maximum cloud cover percentage, exclusive")
	f.StringVar(&flagConf.Catalog.URL, "catalog-url", flagConf.Catalog.URL, "STAC API URL")
	f.StringVar(&flagConf.Catalog.SubscriptionKey, "subscription-key", flagConf.Catalog.SubscriptionKey, "Planetary Computer subscription key")
	f.IntVar(&flagConf.Catalog.PageSize, "page-size", flagConf.Catalog.PageSize, "Search page size")

	return f
}

// SubmitFlags returns a new flag set for job submission.
func SubmitFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Compute, "compute", flagConf.Compute,
		"Compute backend [azure-batch, aws-batch, gcp-batch, local, noop]")
	f.StringVar(&flagConf.Job.ID, "job-id", flagConf.Job.ID, "Job ID")
	f.StringVar(&flagConf.Job.PoolID, "pool-id", flagConf.Job.PoolID, "Pool ID, or AWS Batch job queue")
	f.StringVar(&flagConf.Task.User, "user", flagConf.Task.User, "Name prefixing task IDs")
	f.StringVar(&flagConf.Task.Image, "image", flagConf.Task.Image, "Task container image")
	f.StringVar(&flagConf.Task.OutputURL, "output-url", flagConf.Task.OutputURL,
		"Output destination for backends other than azure-batch")
	f.StringVar(&flagConf.Task.FootprintDir, "footprint-dir", flagConf.Task.FootprintDir,
		"Write scene footprints as GeoJSON to this directory")
	f.Var(&flagConf.Task.Retention, "retention", "Task retention time")
	f.StringVar(&flagConf.Metrics.PushGateway, "push-gateway", flagConf.Metrics.PushGateway, "Prometheus push gateway URL")

	return f
}

// LoggerFlags returns a new flag set for logging.
func LoggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)
	f.StringVar(&flagConf.Logger.Level, "log-level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Logger.Formatter, "log-format", flagConf.Logger.Formatter, "Log format [text, json]")
	f.StringVar(&flagConf.Logger.OutputFile, "log-path", flagConf.Logger.OutputFile, "File path to write logs to")
	return f
}
