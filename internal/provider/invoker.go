package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/silaylearn/silay-api/internal/metrics"
)

// Invocation states.
type State = stateless.State

var (
	StateIdle        State = "Idle"
	StateSDKAttempt  State = "SDKAttempt"
	StateRESTAttempt State = "RESTAttempt"
	StateDone        State = "Done"
)

// Invocation triggers.
type Trigger = stateless.Trigger

var (
	TriggerUseSDK         Trigger = "UseSDK"
	TriggerUseREST        Trigger = "UseREST"
	TriggerSDKUnavailable Trigger = "SDKUnavailable"
	TriggerSDKFailed      Trigger = "SDKFailed"
	TriggerReplied        Trigger = "Replied"
)

// Invoker runs one prompt through the SDK transport and falls back to REST.
// A nil sdk means the SDK could not be constructed.
type Invoker struct {
	sdk    SDKClient
	rest   RESTClient
	useSDK bool
	logger *slog.Logger
}

// NewInvoker creates an Invoker.
func NewInvoker(sdk SDKClient, rest RESTClient, useSDK bool, logger *slog.Logger) *Invoker {
	return &Invoker{sdk: sdk, rest: rest, useSDK: useSDK, logger: logger}
}

type invocation struct {
	prompt string
	prefix string
	reply  string
}

// Invoke returns the model reply or an error stand-in string.
func (i *Invoker) Invoke(ctx context.Context, prompt string) string {
	start := time.Now()
	defer func() { metrics.ProviderDuration.Observe(time.Since(start).Seconds()) }()

	run := &invocation{prompt: prompt}
	fsm := i.newMachine(run)

	trigger := TriggerUseREST
	if i.useSDK {
		trigger = TriggerUseSDK
	}
	if err := fsm.FireCtx(ctx, trigger); err != nil {
		i.logger.Error("provider state machine error", "error", err)
	}

	if state := fsm.MustState(); state != StateDone {
		i.logger.Error("provider invocation ended early", "state", state)
		return run.prefix + UnreachableReply
	}
	return run.prefix + run.reply
}

func (i *Invoker) newMachine(run *invocation) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(TriggerUseSDK, StateSDKAttempt).
		Permit(TriggerUseREST, StateRESTAttempt)

	fsm.Configure(StateSDKAttempt).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if i.sdk == nil {
				i.logger.Warn("gemini sdk unavailable, using rest transport")
				metrics.ProviderAttempts.WithLabelValues("sdk", "unavailable").Inc()
				metrics.ProviderFallbacks.WithLabelValues("unavailable").Inc()
				run.prefix = SDKMissingPrefix
				return fsm.FireCtx(ctx, TriggerSDKUnavailable)
			}

			text, err := i.callSDK(ctx, run.prompt)
			if err != nil {
				i.logger.Error("gemini sdk call failed, falling back to rest", "transport", "sdk", "error", err)
				metrics.ProviderAttempts.WithLabelValues("sdk", "error").Inc()
				metrics.ProviderFallbacks.WithLabelValues("error").Inc()
				return fsm.FireCtx(ctx, TriggerSDKFailed)
			}

			metrics.ProviderAttempts.WithLabelValues("sdk", "ok").Inc()
			run.reply = text
			return fsm.FireCtx(ctx, TriggerReplied)
		}).
		Permit(TriggerSDKUnavailable, StateRESTAttempt).
		Permit(TriggerSDKFailed, StateRESTAttempt).
		Permit(TriggerReplied, StateDone)

	fsm.Configure(StateRESTAttempt).
		OnEntry(func(ctx context.Context, _ ...any) error {
			run.reply = i.rest.Generate(ctx, run.prompt)
			return fsm.FireCtx(ctx, TriggerReplied)
		}).
		Permit(TriggerReplied, StateDone)

	fsm.Configure(StateDone)

	return fsm
}

// callSDK treats a panic inside the SDK like any other SDK failure.
func (i *Invoker) callSDK(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sdk panic: %v", r)
		}
	}()
	return i.sdk.Generate(ctx, prompt)
}
