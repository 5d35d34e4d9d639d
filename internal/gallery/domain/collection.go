package domain

import (
	gendomain "github.com/davinci-studio/studio-backend/internal/generation/domain"
)

// Collection is one session's images plus its bookmark set. A Collection is
// never modified after construction; every operation returns a new value so
// readers always see a consistent list.
type Collection struct {
	images    []gendomain.GeneratedImageRecord
	bookmarks map[string]struct{}
}

// NewCollection builds a collection. Bookmarks naming absent images are dropped.
func NewCollection(images []gendomain.GeneratedImageRecord, bookmarkIDs []string) *Collection {
	c := &Collection{
		images:    append([]gendomain.GeneratedImageRecord(nil), images...),
		bookmarks: make(map[string]struct{}, len(bookmarkIDs)),
	}
	for _, id := range bookmarkIDs {
		if c.indexOf(id) >= 0 {
			c.bookmarks[id] = struct{}{}
		}
	}
	return c
}

// Images returns a copy of the records, newest first
func (c *Collection) Images() []gendomain.GeneratedImageRecord {
	return append([]gendomain.GeneratedImageRecord(nil), c.images...)
}

func (c *Collection) Len() int { return len(c.images) }

// Get returns the record with the given ID
func (c *Collection) Get(id string) (gendomain.GeneratedImageRecord, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.images[i], true
	}
	return gendomain.GeneratedImageRecord{}, false
}

// Prepend places records, in the given order, ahead of the existing images
func (c *Collection) Prepend(records []gendomain.GeneratedImageRecord) *Collection {
	images := make([]gendomain.GeneratedImageRecord, 0, len(records)+len(c.images))
	images = append(images, records...)
	images = append(images, c.images...)
	return &Collection{images: images, bookmarks: c.bookmarks}
}

// Delete removes an image and any bookmark pointing at it
func (c *Collection) Delete(id string) (*Collection, error) {
	i := c.indexOf(id)
	if i < 0 {
		return nil, ErrImageNotFound
	}
	images := make([]gendomain.GeneratedImageRecord, 0, len(c.images)-1)
	images = append(images, c.images[:i]...)
	images = append(images, c.images[i+1:]...)

	bookmarks := c.bookmarks
	if _, ok := c.bookmarks[id]; ok {
		bookmarks = c.copyBookmarks()
		delete(bookmarks, id)
	}
	return &Collection{images: images, bookmarks: bookmarks}, nil
}

// ToggleBookmark flips the bookmark for an image. The image list is shared,
// not copied: bookmarks never affect image records.
func (c *Collection) ToggleBookmark(id string) (*Collection, bool, error) {
	if c.indexOf(id) < 0 {
		return nil, false, ErrImageNotFound
	}
	bookmarks := c.copyBookmarks()
	_, was := bookmarks[id]
	if was {
		delete(bookmarks, id)
	} else {
		bookmarks[id] = struct{}{}
	}
	return &Collection{images: c.images, bookmarks: bookmarks}, !was, nil
}

func (c *Collection) IsBookmarked(id string) bool {
	_, ok := c.bookmarks[id]
	return ok
}

// Bookmarked returns the bookmarked records in collection order
func (c *Collection) Bookmarked() []gendomain.GeneratedImageRecord {
	out := make([]gendomain.GeneratedImageRecord, 0, len(c.bookmarks))
	for _, img := range c.images {
		if _, ok := c.bookmarks[img.ID]; ok {
			out = append(out, img)
		}
	}
	return out
}

// BookmarkIDs returns bookmarked image IDs in collection order
func (c *Collection) BookmarkIDs() []string {
	ids := make([]string, 0, len(c.bookmarks))
	for _, img := range c.Bookmarked() {
		ids = append(ids, img.ID)
	}
	return ids
}

func (c *Collection) indexOf(id string) int {
	for i := range c.images {
		if c.images[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) copyBookmarks() map[string]struct{} {
	m := make(map[string]struct{}, len(c.bookmarks)+1)
	for k := range c.bookmarks {
		m[k] = struct{}{}
	}
	return m
}
