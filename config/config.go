// Package config contains pcbatch configuration: defaults, YAML parsing,
// environment overrides and startup validation.
package config

import (
	"github.com/delange/planetary-computer-batch/logger"
)

// Compute backend names.
const (
	AzureBatchCompute = "azure-batch"
	AWSBatchCompute   = "aws-batch"
	GCPBatchCompute   = "gcp-batch"
	LocalCompute      = "local"
	NoopCompute       = "noop"
)

// Config describes configuration for pcbatch.
type Config struct {
	// the active compute backend
	Compute string
	Job     Job
	Search  Search
	Task    Task
	Catalog Catalog

	AzureBatch AzureBatch
	AWSBatch   AWSBatch
	GCPBatch   GCPBatch
	Local      Local

	AzureStorage AzureStorage
	AmazonS3     AmazonS3Storage

	Metrics Metrics
	Logger  logger.Config
}

// Job identifies the batch job all scene tasks are added to.
type Job struct {
	ID string
	// PoolID is the Azure Batch pool, or the AWS Batch job queue.
	PoolID string
}

// Search holds the raw, unvalidated search input. Invalid values degrade
// to defaults when the catalog filter is built.
type Search struct {
	Satellite      string
	PostProcessing string
	// lowerleft_lat,lowerleft_lon,upperright_lat,upperright_lon
	Coordinates    string
	DateRangeStart string
	DateRangeEnd   string
	CloudCover     string
}

// Task describes how remote task descriptors are built.
type Task struct {
	// User prefixes every task ID.
	User                string
	Image               string
	ContainerRunOptions string
	// CommandTemplate is a text/template rendered with the band hrefs and output name.
	CommandTemplate string
	Retention       Duration
	RedBand         string
	NIRBand         string
	// OutputURL is the upload destination for backends other than azure-batch,
	// e.g. s3://bucket/prefix, gs://bucket/prefix or a local directory.
	OutputURL string
	// FootprintDir enables writing scene footprints as GeoJSON files.
	FootprintDir string
}

// Catalog describes the STAC catalog and the SAS token service used for signing.
type Catalog struct {
	URL             string
	SignURL         string
	SubscriptionKey string
	PageSize        int
	Timeout         Duration
	MaxRetries      int
}

// AzureBatch describes configuration for the Azure Batch compute backend.
type AzureBatch struct {
	AccountName string
	AccountKey  string
	AccountURL  string
	APIVersion  string
	Timeout     Duration
}

// AWSConfig describes a AWS configuration.
type AWSConfig struct {
	Endpoint                  string
	Region                    string
	Key                       string
	Secret                    string
	MaxRetries                int64
	DisableAutoCredentialLoad bool
}

// AWSBatch describes configuration for the AWS Batch compute backend.
type AWSBatch struct {
	JobDefinition string
	JobQueue      string
	AWSConfig
}

// GCPBatch describes configuration for the Google Batch compute backend.
type GCPBatch struct {
	Project     string
	Location    string
	MachineType string
}

// Local describes configuration for the local compute backend.
type Local struct {
	WorkDir     string
	StartupDir  string
	Concurrency int
}

// AzureStorage describes configuration for the blob storage account
// receiving task outputs.
type AzureStorage struct {
	AccountName     string
	AccountURL      string
	AccountKey      string
	OutputContainer string
	SASExpiry       Duration
}

// AmazonS3Storage describes configuration for presigning S3 output uploads.
type AmazonS3Storage struct {
	SignExpiry Duration
	AWSConfig
}

// Metrics describes where run metrics are pushed to.
type Metrics struct {
	PushGateway string
	Job         string
}
