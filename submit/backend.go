package submit

import (
	"context"
	"fmt"
	"strings"

	"github.com/delange/planetary-computer-batch/compute"
	"github.com/delange/planetary-computer-batch/compute/aws_batch"
	"github.com/delange/planetary-computer-batch/compute/azure_batch"
	"github.com/delange/planetary-computer-batch/compute/gcp_batch"
	"github.com/delange/planetary-computer-batch/compute/local"
	"github.com/delange/planetary-computer-batch/compute/noop"
	"github.com/delange/planetary-computer-batch/config"
	"github.com/delange/planetary-computer-batch/logger"
	"github.com/delange/planetary-computer-batch/storage"
)

// NewBackend returns the compute backend selected by conf.Compute.
func NewBackend(ctx context.Context, conf config.Config, log *logger.Logger) (compute.Backend, error) {
	name := strings.ToLower(conf.Compute)
	blog := log.Sub(name)

	var backend compute.Backend
	var err error

	switch name {
	case config.AzureBatchCompute:
		backend, err = azure_batch.NewBackend(conf.AzureBatch, blog)

	case config.AWSBatchCompute:
		var s3 *storage.AmazonS3
		s3, err = storage.NewAmazonS3(conf.AmazonS3)
		if err != nil {
			return nil, err
		}
		backend, err = aws_batch.NewBackend(conf.AWSBatch, s3, blog)

	case config.GCPBatchCompute:
		backend, err = gcp_batch.NewBackend(ctx, conf.GCPBatch, blog)

	case config.LocalCompute:
		backend, err = local.NewBackend(ctx, conf.Local, blog)

	case config.NoopCompute:
		backend = noop.NewBackend(blog)

	default:
		return nil, fmt.Errorf("unknown compute backend: '%s'", conf.Compute)
	}

	if err != nil {
		return nil, err
	}
	return backend, nil
}

// Destination returns where task outputs are uploaded to. Azure Batch
// tasks upload to a SAS URL of the output container. Other backends use
// the configured output URL.
func Destination(conf config.Config) (string, error) {
	if strings.ToLower(conf.Compute) != config.AzureBatchCompute {
		return conf.Task.OutputURL, nil
	}
	blob, err := storage.NewAzureBlob(conf.AzureStorage)
	if err != nil {
		return "", err
	}
	return blob.OutputSASURL()
}
