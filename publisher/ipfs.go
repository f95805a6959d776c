package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/rs/zerolog/log"
)

// ErrNotPublished is returned by Unpublish when no pin exists for the id.
var ErrNotPublished = errors.New("content not published")

// Result is the durable reference handed back after a publish.
type Result struct {
	URL          string
	ContentID    string
	ThumbnailURL string
}

// IPFS publishes local files to an IPFS node and exposes them through a
// public gateway. The content id doubles as the pin handle for removal.
type IPFS struct {
	sh      *shell.Shell
	gateway string
}

// NewIPFS connects a shell client to the node API at addr. gateway is
// the public base URL, e.g. "https://ipfs.io/ipfs".
func NewIPFS(addr, gateway string) *IPFS {
	return &IPFS{
		sh:      shell.NewShell(addr),
		gateway: strings.TrimRight(gateway, "/"),
	}
}

// IsUp reports whether the node API answers.
func (p *IPFS) IsUp() bool {
	return p.sh.IsUp()
}

// Publish adds and pins the file, returning its gateway URL and cid.
func (p *IPFS) Publish(ctx context.Context, localPath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	cid, err := p.sh.Add(f)
	if err != nil {
		return nil, fmt.Errorf("ipfs add: %w", err)
	}

	if err := p.sh.Pin(cid); err != nil {
		return nil, fmt.Errorf("ipfs pin %s: %w", cid, err)
	}

	log.Info().Str("cid", cid).Msg("published to ipfs")

	return &Result{
		URL:       p.URL(cid),
		ContentID: cid,
	}, nil
}

// Unpublish removes the pin, releasing the content for garbage
// collection on the node.
func (p *IPFS) Unpublish(ctx context.Context, contentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.sh.Unpin(contentID); err != nil {
		if strings.Contains(err.Error(), "not pinned") {
			return ErrNotPublished
		}
		return fmt.Errorf("ipfs unpin %s: %w", contentID, err)
	}

	return nil
}

// URL builds the public gateway URL for a content id.
func (p *IPFS) URL(contentID string) string {
	return p.gateway + "/" + contentID
}
