package session

import (
	"fmt"
	"math/rand"
)

var nameAdjectives = []string{
	"amber", "brisk", "calm", "deft", "eager", "fleet",
	"keen", "lucid", "mellow", "nimble", "quiet", "vivid",
}

var nameNouns = []string{
	"falcon", "harbor", "lantern", "meadow", "otter",
	"pike", "quarry", "ridge", "spruce", "willow",
}

// GenerateTitle produces a readable title for an unnamed session, avoiding
// anything in taken.
func GenerateTitle(taken map[string]bool) string {
	for attempt := 0; attempt < 32; attempt++ {
		name := fmt.Sprintf("%s-%s",
			nameAdjectives[rand.Intn(len(nameAdjectives))],
			nameNouns[rand.Intn(len(nameNouns))])
		if !taken[name] {
			return name
		}
	}
	// Collision-heavy roster; fall back to a numbered title.
	for i := 1; ; i++ {
		name := fmt.Sprintf("session-%d", i)
		if !taken[name] {
			return name
		}
	}
}
