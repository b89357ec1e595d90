package lora

import "fmt"

// ConfigError reports an adapter configuration that cannot be applied to the
// model it was given. It is surfaced immediately and never retried.
type ConfigError struct {
	Target string // offending target module, when one is known
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("lora: target %q: %s", e.Target, e.Reason)
	}
	return "lora: " + e.Reason
}
