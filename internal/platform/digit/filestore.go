package digit

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
)

// FileStoreClient talks to the file store service.
type FileStoreClient struct {
	*Client
}

// NewFileStoreClient wraps c.
func NewFileStoreClient(c *Client) *FileStoreClient {
	return &FileStoreClient{Client: c}
}

// IsFileAvailable reports whether fileStoreID resolves for tenantID: the
// service must answer 2xx with a non-empty body. A 404 is (false, nil).
func (c *FileStoreClient) IsFileAvailable(ctx context.Context, fileStoreID, tenantID string) (bool, error) {
	if strings.TrimSpace(fileStoreID) == "" {
		return false, nil
	}

	resp, err := c.do(ctx, call{
		operation: "get_file",
		method:    http.MethodGet,
		path:      "/filestore/v1/files/" + url.PathEscape(fileStoreID),
		query:     url.Values{"tenantId": {tenantID}},
	}, nil)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(bytes.TrimSpace(resp.body)) > 0, nil
}
