package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/delange/planetary-computer-batch/config"
)

// AzureBlob generates shared access signature URLs for blob containers.
type AzureBlob struct {
	conf config.AzureStorage
	cred *azblob.SharedKeyCredential
	now  func() time.Time
}

// NewAzureBlob returns a new AzureBlob for the configured storage account.
func NewAzureBlob(conf config.AzureStorage) (*AzureBlob, error) {
	cred, err := azblob.NewSharedKeyCredential(conf.AccountName, conf.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("error creating azure storage credential: %v", err)
	}
	return &AzureBlob{conf: conf, cred: cred, now: time.Now}, nil
}

// OutputSASURL returns a URL granting read, add, create and write access to
// the output container until the configured expiry. Batch tasks use it to
// upload their output files.
func (b *AzureBlob) OutputSASURL() (string, error) {
	perms := sas.ContainerPermissions{Read: true, Add: true, Create: true, Write: true}
	return b.ContainerSASURL(b.conf.OutputContainer, perms, b.conf.SASExpiry.AsDuration())
}

// ContainerSASURL returns a SAS URL for a container of the storage account.
func (b *AzureBlob) ContainerSASURL(container string, perms sas.ContainerPermissions, expiry time.Duration) (string, error) {
	q, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		ExpiryTime:    b.now().UTC().Add(expiry),
		Permissions:   perms.String(),
		ContainerName: container,
	}.SignWithSharedKey(b.cred)
	if err != nil {
		return "", fmt.Errorf("signing SAS for container %s: %w", container, err)
	}
	return b.accountURL() + "/" + container + "?" + q.Encode(), nil
}

func (b *AzureBlob) accountURL() string {
	if b.conf.AccountURL != "" {
		return strings.TrimSuffix(b.conf.AccountURL, "/")
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net", b.conf.AccountName)
}
