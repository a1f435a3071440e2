package module

import "context"

// Runner is implemented by nodes producing messages on their own, such as timers.
// Start is called once the workflow is wired; Stop when it is torn down.
type Runner interface {
	Node
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
