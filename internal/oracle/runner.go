// Package oracle implements the user actions against the oracle registry.
// Every action follows the same choreography: mark busy, ensure the
// session, read the form, invoke the contract, fill the display, clear busy.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Busy is a progress indicator.
type Busy interface {
	Start(label string)
	Stop()
}

type nopBusy struct{}

func (nopBusy) Start(string) {}
func (nopBusy) Stop()        {}

// Session hands out ready chain clients.
type Session interface {
	Ensure(ctx context.Context) (*session.Client, error)
}

// Runner executes actions over a shared session. It is safe for concurrent
// use as long as its Busy is.
type Runner struct {
	sess    Session
	binding *contract.Binding
	busy    Busy
	log     *zap.Logger
	invOpts []contract.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBusy sets the progress indicator.
func WithBusy(b Busy) RunnerOption {
	return func(r *Runner) { r.busy = b }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithBinding overrides the contract binding.
func WithBinding(b *contract.Binding) RunnerOption {
	return func(r *Runner) { r.binding = b }
}

// WithInvokerOptions passes options to every invoker the runner creates.
func WithInvokerOptions(opts ...contract.Option) RunnerOption {
	return func(r *Runner) { r.invOpts = append(r.invOpts, opts...) }
}

// NewRunner creates a Runner over sess.
func NewRunner(sess Session, opts ...RunnerOption) *Runner {
	r := &Runner{
		sess:    sess,
		binding: contract.DefaultBinding(),
		busy:    nopBusy{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Binding returns the contract binding actions run against.
func (r *Runner) Binding() *contract.Binding { return r.binding }

// Run executes a with the given form. On failure the returned display may
// hold what was learned before the error.
func (r *Runner) Run(ctx context.Context, a Action, form Form) (Display, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("action", a.Name), zap.String("run_id", runID))

	r.busy.Start(a.Label())
	defer r.busy.Stop()

	start := time.Now()
	client, err := r.sess.Ensure(ctx)
	if err != nil {
		log.Warn("session unavailable", zap.Error(err))
		return nil, err
	}

	opts := append([]contract.Option{contract.WithLogger(log)}, r.invOpts...)
	inv := contract.NewInvoker(r.binding, client, opts...)

	d, err := a.run(ctx, inv, form)
	if err != nil {
		log.Debug("action failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return d, err
	}
	log.Info("action done", zap.Duration("elapsed", time.Since(start)))
	return d, nil
}

// RunNamed looks up an action by name and runs it.
func (r *Runner) RunNamed(ctx context.Context, name string, form Form) (Display, error) {
	a, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown action %q", name)
	}
	return r.Run(ctx, a, form)
}
