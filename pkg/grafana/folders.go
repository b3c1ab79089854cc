package grafana

import (
	"context"
	"net/http"

	"github.com/grafana/grafana-openapi-client-go/models"
)

const foldersPath = "/api/folders"

// ListFolders returns the folders visible to the client.
func (c *Client) ListFolders(ctx context.Context) ([]*models.FolderSearchHit, error) {
	response, err := c.execute(c.request(ctx), http.MethodGet, foldersPath)
	if err != nil {
		return nil, err
	}

	var folders []*models.FolderSearchHit
	if err := decode(response, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFolder creates a folder with the given title and a server assigned UID.
func (c *Client) CreateFolder(ctx context.Context, title string) (*models.Folder, error) {
	req := c.request(ctx).SetBody(&models.CreateFolderCommand{Title: title})

	response, err := c.execute(req, http.MethodPost, foldersPath)
	if err != nil {
		return nil, err
	}

	var folder models.Folder
	if err := decode(response, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}
