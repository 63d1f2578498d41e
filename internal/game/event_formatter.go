package game

import (
	"fmt"
	"strings"
)

// FormatEvent renders a game event as a single human-readable log line.
func FormatEvent(event GameEvent) string {
	switch ev := event.(type) {
	case HandStartEvent:
		return fmt.Sprintf("hand %d begins, mano seat %d (%s)", ev.HandNumber, ev.ManoIndex, ev.Mode)

	case RoundChangeEvent:
		return fmt.Sprintf("%s %s, seat %d to act", ev.Round, ev.Phase, ev.ActiveIndex)

	case PlayerActionEvent:
		var sb strings.Builder
		fmt.Fprintf(&sb, "seat %d: %s", ev.PlayerIndex, ev.Action)
		if ev.Amount > 0 {
			fmt.Fprintf(&sb, " %d", ev.Amount)
		}
		if ev.Timeout {
			sb.WriteString(" (timeout)")
		}
		return sb.String()

	case DeclarationEvent:
		if ev.Auto {
			return fmt.Sprintf("seat %d: %s declared %s automatically", ev.PlayerIndex, ev.Round, ev.Declaration)
		}
		return fmt.Sprintf("seat %d: declares %s for %s", ev.PlayerIndex, ev.Declaration, ev.Round)

	case CardCollapsedEvent:
		if ev.Forced {
			return fmt.Sprintf("seat %d card %d forced to %s", ev.PlayerIndex, ev.CardIndex, ev.FinalValue)
		}
		return fmt.Sprintf("seat %d card %d collapses to %s", ev.PlayerIndex, ev.CardIndex, ev.FinalValue)

	case PenaltyEvent:
		return fmt.Sprintf("seat %d wrong %s declaration, %s loses a point", ev.PlayerIndex, ev.Round, ev.Team)

	case StateChangedEvent:
		return fmt.Sprintf("state: %s %s, seat %d active", ev.Round, ev.Phase, ev.ActiveIndex)

	case HandEndEvent:
		return fmt.Sprintf("hand %d ends %d-%d", ev.HandNumber, ev.Scores[0], ev.Scores[1])

	case MatchEndEvent:
		if ev.Ordago {
			return fmt.Sprintf("%s wins by ordago %d-%d", ev.Winner, ev.Scores[0], ev.Scores[1])
		}
		return fmt.Sprintf("%s wins %d-%d", ev.Winner, ev.Scores[0], ev.Scores[1])
	}
	return string(event.EventType())
}
