package fetch

import (
	"context"
	"fmt"
	"os"

	"purissima/internal"
)

// FileFetcher serves a saved page or payload. The window is ignored.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(ctx context.Context, _ Window) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrTransport, err)
	}
	blob, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrTransport, err)
	}
	return blob, nil
}

var (
	_ Fetcher = (*Client)(nil)
	_ Fetcher = FileFetcher{}
)
