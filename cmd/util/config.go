package util

import (
	"strings"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/imdario/mergo"
	"github.com/spf13/pflag"
)

func normalize(name string) string {
	from := []string{"-", "_"}
	to := "."
	for _, sep := range from {
		name = strings.Replace(name, sep, to, -1)
	}
	return strings.ToLower(name)
}

// flag aliases, keyed by normalized name.
var aliases = map[string]string{
	"outputfilename": "output",
}

// NormalizeFlags allows for flags to be case and separator insensitive.
// Use it by passing it to cobra.Command.SetGlobalNormalizationFunc
func NormalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := aliases[normalize(name)]; ok {
		name = alias
	}

	lookup := map[string]string{"help": "help", normalize(name): name}

	f.VisitAll(func(f *pflag.Flag) {
		lookup[normalize(f.Name)] = f.Name
	})

	return pflag.NormalizedName(lookup[normalize(name)])
}

// MergeConfigFileWithFlags builds the configuration of a command run.
// Defaults are overridden by the config file, then by credentials found in
// the environment (and the optional dotenv file), then by flag values.
func MergeConfigFileWithFlags(file, dotenv string, flagConf config.Config) (config.Config, error) {
	conf := config.DefaultConfig()
	err := config.ParseFile(file, &conf)
	if err != nil {
		return conf, err
	}

	err = config.LoadEnv(&conf, dotenv)
	if err != nil {
		return conf, err
	}

	// file vals <- env vals <- cli vals
	err = mergo.MergeWithOverwrite(&conf, flagConf)
	if err != nil {
		return conf, err
	}

	conf.Compute = strings.ToLower(strings.TrimSpace(conf.Compute))

	return conf, nil
}
