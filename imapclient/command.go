package imapclient

import (
	"fmt"
	"sync/atomic"

	"github.com/wireimap/imapkit/imapclient/internal/respparse"
)

// tagGenerator produces command tags "A001", "A002", ... The counter
// increments monotonically and wraps only after uint32 max.
type tagGenerator struct {
	counter atomic.Uint32
}

func (g *tagGenerator) next() string {
	n := g.counter.Add(1)
	return fmt.Sprintf("A%03d", n)
}

// pendingCommand tracks one in-flight command: a tag, a handler that
// receives every response fragment until the matching tagged
// completion, and a completion promise (done).
type pendingCommand struct {
	tag        string
	onUntagged func(*respparse.Response)
	done       chan *respparse.Tagged
}

func newPendingCommand(tag string, onUntagged func(*respparse.Response)) *pendingCommand {
	return &pendingCommand{
		tag:        tag,
		onUntagged: onUntagged,
		done:       make(chan *respparse.Tagged, 1),
	}
}

// deliver routes one parsed response to this pending command. It
// reports whether resp completed the command (a tagged response whose
// tag matches).
func (p *pendingCommand) deliver(resp *respparse.Response) bool {
	if resp.Tagged != nil && resp.Tagged.Tag == p.tag {
		p.done <- resp.Tagged
		return true
	}
	if p.onUntagged != nil {
		p.onUntagged(resp)
	}
	return false
}
