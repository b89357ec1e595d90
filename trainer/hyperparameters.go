package trainer

// Hyperparameters control a training session and the tolerance its
// surrounding checks compare with.
type Hyperparameters struct {
	LearnRate float64 // SGD step size
	Steps     int     // training iterations per check
	Tolerance float64 // numeric comparison tolerance
	Threads   int     // workers for parameter comparison
}

// Defaults returns the standard check hyperparameters. Three steps is the
// minimum that lets a zero-initialized factor break symmetry: its gradient
// is zero until the opposite factor has moved at least once.
func Defaults() Hyperparameters {
	return Hyperparameters{
		LearnRate: 0.01,
		Steps:     3,
		Tolerance: 1e-4,
		Threads:   4,
	}
}
