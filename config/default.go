package config

import (
	"os"
	"path"
	"time"

	"github.com/delange/planetary-computer-batch/logger"
)

// DefaultCommandTemplate relocates the node startup directory into the task
// working directory and runs the index computation from there.
const DefaultCommandTemplate = `/bin/bash -c "cp -r $AZ_BATCH_NODE_STARTUP_DIR/wd $AZ_BATCH_TASK_WORKING_DIR && ` +
	`$AZ_BATCH_TASK_WORKING_DIR/wd/pcbatch ndvi --red {{quote .Red}} --nir {{quote .NIR}} --output {{quote .Output}}"`

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	workDir := path.Join(cwd, "pcbatch-work-dir")

	c := Config{
		Compute: AzureBatchCompute,
		Search: Search{
			Satellite:      "Sentinel2",
			PostProcessing: "NDVI",
			CloudCover:     "10",
		},
		Task: Task{
			User:                "pcbatch",
			Image:               "ghcr.io/osgeo/gdal:ubuntu-small-3.9.2",
			ContainerRunOptions: "--rm",
			CommandTemplate:     DefaultCommandTemplate,
			Retention:           Duration(time.Minute * 60),
			RedBand:             "B04",
			NIRBand:             "B08",
		},
		Catalog: Catalog{
			URL:        "https://planetarycomputer.microsoft.com/api/stac/v1",
			SignURL:    "https://planetarycomputer.microsoft.com/api/sas/v1",
			PageSize:   100,
			Timeout:    Duration(time.Minute),
			MaxRetries: 5,
		},
		AzureBatch: AzureBatch{
			APIVersion: "2024-07-01.20.0",
			Timeout:    Duration(time.Second * 30),
		},
		AzureStorage: AzureStorage{
			OutputContainer: "batch-output",
			SASExpiry:       Duration(time.Hour * 24),
		},
		AmazonS3: AmazonS3Storage{
			SignExpiry: Duration(time.Hour * 24),
		},
		GCPBatch: GCPBatch{
			Location:    "us-central1",
			MachineType: "e2-standard-2",
		},
		Local: Local{
			WorkDir:     workDir,
			StartupDir:  path.Join(workDir, "startup"),
			Concurrency: 2,
		},
		Metrics: Metrics{
			Job: "pcbatch",
		},
		Logger: logger.DefaultConfig(),
	}

	c.AWSBatch.JobDefinition = "pcbatch-job-def"
	c.AWSBatch.JobQueue = "pcbatch-job-queue"
	c.AWSBatch.MaxRetries = 10
	c.AmazonS3.MaxRetries = 10

	return c
}
