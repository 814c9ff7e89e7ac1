package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/spboyer/ifccheck/internal/runner"
)

// DefaultContainer receives reports when no container is configured.
const DefaultContainer = "ifccheck-reports"

// BlobUploader is the subset of *azblob.Client used for publishing.
type BlobUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// Publisher uploads JSON reports to Azure Blob Storage.
type Publisher struct {
	client    BlobUploader
	container string
}

// NewPublisher connects to the storage account at serviceURL. URLs carrying
// a SAS token are used as-is; otherwise DefaultAzureCredential is used.
func NewPublisher(serviceURL, container string) (*Publisher, error) {
	u, err := url.Parse(serviceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upload URL %q", serviceURL)
	}

	var client *azblob.Client
	if u.Query().Has("sig") {
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("creating Azure credential: %w", credErr)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return NewPublisherWithClient(client, container), nil
}

// NewPublisherWithClient wraps an existing uploader.
func NewPublisherWithClient(client BlobUploader, container string) *Publisher {
	if strings.TrimSpace(container) == "" {
		container = DefaultContainer
	}
	return &Publisher{client: client, container: container}
}

// BlobName is the name a report is stored under.
func BlobName(report *runner.Report) string {
	return fmt.Sprintf("%s/%s.json", report.Timestamp.Format("2006-01-02"), report.RunID)
}

// Publish uploads the JSON form of report and returns the blob name.
func (p *Publisher) Publish(ctx context.Context, report *runner.Report) (string, error) {
	data, err := MarshalJSON(report)
	if err != nil {
		return "", err
	}

	name := BlobName(report)
	_, err = p.client.UploadBuffer(ctx, p.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/json")},
		Metadata:    map[string]*string{"runid": to.Ptr(report.RunID)},
	})
	if err != nil {
		return "", fmt.Errorf("uploading report to %s/%s: %w", p.container, name, err)
	}

	slog.Debug("Published report", "container", p.container, "blob", name, "bytes", len(data))
	return name, nil
}
