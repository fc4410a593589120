package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageFetcher downloads images from Azure Blob Storage.
// References are "container/blob/name.jpg" or a full blob URL on the account.
type AzureImageFetcher struct {
	client *azblob.Client
}

func NewAzureImageFetcher(accountName string, accountKey string) (*AzureImageFetcher, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("azure storage account name and key are required")
	}
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureImageFetcher{client: client}, nil
}

func (s *AzureImageFetcher) FetchImage(ctx context.Context, ref string) (Frame, error) {
	containerName, blobName, err := ParseBlobRef(ref)
	if err != nil {
		return Frame{}, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Frame{}, ctxErr
		}
		return Frame{}, fmt.Errorf("%w: download %s/%s: %w", ErrInvalidImagePath, containerName, blobName, err)
	}
	body := resp.Body
	defer body.Close()

	return Decode(body, ref)
}

// ParseBlobRef splits a blob reference into container and blob name.
func ParseBlobRef(ref string) (container, blob string, err error) {
	p := strings.TrimSpace(ref)
	if strings.Contains(p, "://") {
		u, perr := url.Parse(p)
		if perr != nil {
			return "", "", fmt.Errorf("%w: invalid blob URL: %w", ErrInvalidImagePath, perr)
		}
		p = u.Path
	}
	p = strings.TrimPrefix(p, "/")

	container, blob, ok := strings.Cut(p, "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("%w: blob reference %q must be container/blob", ErrInvalidImagePath, ref)
	}
	return container, blob, nil
}
