package analysis

import (
	"fmt"

	"github.com/ademuri/vibe-gigs/internal/vibe"
)

// Format renders the top vibes as display strings such as "Afrohouse (56%)".
func Format(p TasteProfile) []string {
	out := make([]string, 0, len(p.TopVibes))
	for _, key := range p.TopVibes {
		name := key
		if c, ok := vibe.Lookup(key); ok {
			name = c.Name
		}
		out = append(out, fmt.Sprintf("%s (%d%%)", name, p.VibeWeights[key]))
	}
	return out
}
