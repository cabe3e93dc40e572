package storage

import (
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/delange/planetary-computer-batch/config"
	util "github.com/delange/planetary-computer-batch/util/aws"
)

// AmazonS3 presigns uploads of task outputs to S3.
type AmazonS3 struct {
	client s3iface.S3API
	expiry time.Duration
}

// NewAmazonS3 creates an AmazonS3 session instance.
func NewAmazonS3(conf config.AmazonS3Storage) (*AmazonS3, error) {
	sess, err := util.NewAWSSession(&conf.AWSConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating amazon s3 client: %v", err)
	}
	return &AmazonS3{client: s3.New(sess), expiry: conf.SignExpiry.AsDuration()}, nil
}

// PresignPut returns an HTTPS URL which accepts a PUT of the object at
// s3://bucket/prefix/name until the configured expiry.
func (s *AmazonS3) PresignPut(rawurl, name string) (string, error) {
	url, err := parseBucketURL("amazonS3", s3Protocol, rawurl)
	if err != nil {
		return "", err
	}

	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(url.bucket),
		Key:    aws.String(path.Join(url.path, name)),
	})
	signed, err := req.Presign(s.expiry)
	if err != nil {
		return "", fmt.Errorf("presigning upload to %s: %w", rawurl, err)
	}
	return signed, nil
}
