package dialogue

import (
	"strings"

	"github.com/ankittk/tasktalk/internal/intent"
)

// Merge combines the model's reply with the executor's confirmation. Listings and
// stock acknowledgements ("I'll ...") give way to the confirmation; a reply that
// already carries the confirmation is not repeated.
func Merge(k intent.Kind, reply, confirmation string, stockOpeners []string) string {
	if confirmation == "" {
		return reply
	}
	if k == intent.TaskList {
		return confirmation
	}
	r := strings.TrimSpace(reply)
	if r == "" || strings.Contains(r, confirmation) {
		return confirmation
	}
	for _, o := range stockOpeners {
		if o != "" && strings.HasPrefix(r, o) {
			return confirmation
		}
	}
	return r + " " + confirmation
}
