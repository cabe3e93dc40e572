package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Validate checks that every value required by the selected compute backend
// is present. It is called once at startup so that a missing credential is
// reported before any remote call is made.
func Validate(conf Config) error {
	var errs *multierror.Error

	required := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s is required", name))
		}
	}

	required("Job.ID", conf.Job.ID)
	required("Task.User", conf.Task.User)
	required("Task.CommandTemplate", conf.Task.CommandTemplate)
	required("Task.RedBand", conf.Task.RedBand)
	required("Task.NIRBand", conf.Task.NIRBand)
	required("Catalog.URL", conf.Catalog.URL)

	if conf.Task.Retention <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("Task.Retention must be positive"))
	}

	switch strings.ToLower(strings.TrimSpace(conf.Compute)) {
	case AzureBatchCompute:
		required("Job.PoolID", conf.Job.PoolID)
		required("AzureBatch.AccountName", conf.AzureBatch.AccountName)
		required("AzureBatch.AccountKey", conf.AzureBatch.AccountKey)
		required("AzureBatch.AccountURL", conf.AzureBatch.AccountURL)
		required("AzureStorage.AccountName", conf.AzureStorage.AccountName)
		required("AzureStorage.AccountKey", conf.AzureStorage.AccountKey)
		required("AzureStorage.OutputContainer", conf.AzureStorage.OutputContainer)

	case AWSBatchCompute:
		required("AWSBatch.JobDefinition", conf.AWSBatch.JobDefinition)
		if conf.Job.PoolID == "" {
			required("AWSBatch.JobQueue", conf.AWSBatch.JobQueue)
		}
		if !strings.HasPrefix(conf.Task.OutputURL, "s3://") {
			errs = multierror.Append(errs, fmt.Errorf("Task.OutputURL must be an s3:// URL for the %s backend", conf.Compute))
		}

	case GCPBatchCompute:
		required("GCPBatch.Project", conf.GCPBatch.Project)
		required("GCPBatch.Location", conf.GCPBatch.Location)
		if !strings.HasPrefix(conf.Task.OutputURL, "gs://") {
			errs = multierror.Append(errs, fmt.Errorf("Task.OutputURL must be a gs:// URL for the %s backend", conf.Compute))
		}

	case LocalCompute:
		required("Local.WorkDir", conf.Local.WorkDir)
		if conf.Local.Concurrency < 1 {
			errs = multierror.Append(errs, fmt.Errorf("Local.Concurrency must be at least 1"))
		}

	case NoopCompute:

	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown compute backend %q", conf.Compute))
	}

	return errs.ErrorOrNil()
}
