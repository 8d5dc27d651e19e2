// Package storage writes downloaded images to disk.
//
// Images are stored as <id>.<ext> in a single output directory. A Manager
// indexes the directory on creation so images saved by an earlier run are
// not fetched again, and every write goes through a temporary file that is
// renamed into place, so a partially written image is never visible under
// its final name.
//
//	manager, err := storage.NewManager("pixabay")
//	if err != nil {
//	    return err
//	}
//	if _, ok := manager.IsSaved(hit.ID); !ok {
//	    path, err := manager.Save(bytes.NewReader(data), hit.ID, storage.ExtFromURL(hit.LargeImageURL))
//	    ...
//	}
package storage
