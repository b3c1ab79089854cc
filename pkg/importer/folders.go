package importer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// FolderResolver maps folder titles to UIDs, creating missing folders.
// Resolved titles are cached for the lifetime of the resolver.
type FolderResolver struct {
	api   FolderAPI
	cache map[string]string
}

func NewFolderResolver(api FolderAPI) *FolderResolver {
	return &FolderResolver{
		api:   api,
		cache: map[string]string{},
	}
}

// Resolve returns the UID of the folder titled title, creating it if needed.
func (r *FolderResolver) Resolve(ctx context.Context, title string) (string, error) {
	uid, found, err := r.Lookup(ctx, title)
	if err != nil || found {
		return uid, err
	}

	folder, err := r.api.CreateFolder(ctx, title)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", title, err)
	}

	log.Debugf("Created folder %q with uid %s", title, folder.UID)
	r.cache[title] = folder.UID
	return folder.UID, nil
}

// Lookup returns the UID of an existing folder without creating it.
func (r *FolderResolver) Lookup(ctx context.Context, title string) (string, bool, error) {
	if uid, ok := r.cache[title]; ok {
		return uid, true, nil
	}

	folders, err := r.api.ListFolders(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list folders: %w", err)
	}

	for _, folder := range folders {
		if folder != nil && folder.Title == title {
			r.cache[title] = folder.UID
			return folder.UID, true, nil
		}
	}
	return "", false, nil
}
