package main

import (
	"context"
	"fmt"

	"github.com/davinci-studio/studio-backend/internal/bootstrap"
	gallerysvc "github.com/davinci-studio/studio-backend/internal/gallery/service"
)

// RunImages prints a session's collection, newest first
func RunImages(ctx context.Context, b *bootstrap.Backends, args []string) error {
	col, err := gallerysvc.NewGallery(b.Store).Collection(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Images (%d):\n", col.Len())
	for _, img := range col.Images() {
		mark := " "
		if col.IsBookmarked(img.ID) {
			mark = "*"
		}
		fmt.Printf(" %s %s %s [%s] %q\n", mark, img.Timestamp.Format("2006-01-02 15:04:05"), img.ID, img.AspectRatio, img.Prompt)
	}
	return nil
}
