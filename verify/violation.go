package verify

import "fmt"

// Violation kinds.
const (
	KindBaseDrift   = "frozen base parameter moved"
	KindDeadAdapter = "adapter parameter did not move"
	KindDisable     = "disable scope did not reproduce baseline outputs"
	KindNoEffect    = "training did not change outputs"
	KindMerge       = "merged outputs diverged from adapter outputs"
	KindRestore     = "disable scope left adapters suppressed"
)

// Violation is a failed check invariant. It names what was violated, the
// parameter or output it was measured on, and the largest deviation seen.
type Violation struct {
	Kind  string
	Param string
	Delta float64
}

func (v *Violation) Error() string {
	return fmt.Sprintf("verify: %s: %q (max delta %g)", v.Kind, v.Param, v.Delta)
}
