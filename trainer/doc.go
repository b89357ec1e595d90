// Package trainer runs short gradient descent sessions over the fixture
// models. A session compiles the forward pass, a sum-of-outputs loss and the
// gradients once, then steps a plain SGD solver over the model's trainable
// parameters. The loss carries no meaning beyond providing gradient signal;
// the verification checks only care which parameters move.
package trainer
