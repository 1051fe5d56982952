package fixture

import (
	"fmt"
	"strings"
	"time"
)

// Behavior switch names accepted by ParseBehavior.
const (
	SwitchOmitSettings  = "omit-settings"
	SwitchOmitModal     = "omit-modal"
	SwitchWrongCommand  = "wrong-command"
	SwitchOmitSuccess   = "omit-success"
	SwitchCheckmarkOnly = "checkmark-only"
)

// ParseBehavior builds a Behavior from switch names.
func ParseBehavior(switches []string, loadDelay time.Duration) (Behavior, error) {
	b := Behavior{LoadDelay: loadDelay}
	for _, sw := range switches {
		switch strings.ToLower(strings.TrimSpace(sw)) {
		case "":
		case SwitchOmitSettings:
			b.OmitSettings = true
		case SwitchOmitModal:
			b.OmitModal = true
		case SwitchWrongCommand:
			b.WrongCommand = true
		case SwitchOmitSuccess:
			b.OmitSuccess = true
		case SwitchCheckmarkOnly:
			b.CheckmarkOnly = true
		default:
			return Behavior{}, fmt.Errorf("unknown fixture behavior %q", sw)
		}
	}
	return b, nil
}
