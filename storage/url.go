package storage

import (
	"strings"
)

// Protocol prefixes of supported object store URLs.
const (
	s3Protocol = "s3://"
	gsProtocol = "gs://"
)

type urlparts struct {
	bucket string
	path   string
}

func parseBucketURL(backend, protocol, rawurl string) (*urlparts, error) {
	if !strings.HasPrefix(rawurl, protocol) {
		return nil, &ErrUnsupportedProtocol{backend}
	}

	p := strings.TrimPrefix(rawurl, protocol)
	split := strings.SplitN(p, "/", 2)
	if split[0] == "" {
		return nil, &ErrInvalidURL{backend}
	}

	url := &urlparts{bucket: split[0]}
	if len(split) == 2 {
		url.path = strings.Trim(split[1], "/")
	}
	return url, nil
}

// ParseGoogleCloudURL splits a gs://bucket/prefix URL into bucket and prefix.
func ParseGoogleCloudURL(rawurl string) (bucket, prefix string, err error) {
	u, err := parseBucketURL("googleStorage", gsProtocol, rawurl)
	if err != nil {
		return "", "", err
	}
	return u.bucket, u.path, nil
}
