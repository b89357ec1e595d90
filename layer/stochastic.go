package layer

import "math/rand"

// Stochastic is a module whose behavior differs between training and
// evaluation, such as dropout. The trainer resamples before every training
// step and switches to evaluation mode before capturing outputs.
type Stochastic interface {

	// Resample draws fresh noise for the next training step.
	Resample(rng *rand.Rand)

	// Eval switches the module to its deterministic evaluation behavior.
	Eval()
}
