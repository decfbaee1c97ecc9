package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insectlab/bugradar/internal/sessionlog"
)

const systemPrompt = `You are an insect analysis assistant for a camera rig that detects flies and cockroaches.
You answer questions about detection sessions: species counts, entry/exit angles, distances, and the nearest encounter.
Angles are in degrees across the camera's field of view and distances in meters.
When you give practical advice (pest control, camera placement), put it in [square brackets].
If the logs do not contain the answer, say so instead of guessing.`

const routingInstructions = `Answer from the data above. Questions about "this session", "now" or "today" refer to the CURRENT SESSION block.
Questions about totals, trends or "overall" refer to the OVERALL SUMMARY block.`

// BuildMessages assembles the system prompt, log context, and the user's
// question into the message list sent to the model. The current session and
// an aggregate over all sessions are both included so the model can route
// "right now" and "overall" questions without extra round trips.
func BuildMessages(entries []sessionlog.SessionEntry, question string) ([]Message, error) {
	var ctx strings.Builder

	if len(entries) > 0 {
		latest := entries[len(entries)-1]
		cur, err := json.MarshalIndent(latest.Session, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal current session: %w", err)
		}
		fmt.Fprintf(&ctx, "CURRENT SESSION (%s):\n%s\n\n", latest.ID, cur)

		agg, err := json.MarshalIndent(sessionlog.OverallSummary(entries), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal overall summary: %w", err)
		}
		fmt.Fprintf(&ctx, "OVERALL SUMMARY (%d sessions):\n%s\n\n", len(entries), agg)
	} else {
		ctx.WriteString("No detection sessions have been recorded yet.\n\n")
	}

	ctx.WriteString(routingInstructions)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "system", Content: ctx.String()},
		{Role: "user", Content: question},
	}, nil
}
