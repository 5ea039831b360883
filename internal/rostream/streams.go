// Package rostream provides small reactive-stream building blocks on top of
// samber/ro, used by the outbound pipeline's channel-driven entry point
// (pipeline.RunChannelPipeline). The inbound pipeline does not use it.
//
// IMPORTANT: samber/ro is pre-1.0. Keep usage to the primitives below.
package rostream

import (
	"context"

	"github.com/samber/ro"
)

// FromChannel creates an Observable from a receive-only channel.
// The Observable completes when the channel is closed.
func FromChannel[T any](ch <-chan T) ro.Observable[T] {
	return ro.FromChannel(ch)
}

// SubscribeWithContext subscribes to a stream carrying a context through
// every notification, for cancellation-aware stages.
func SubscribeWithContext[T any](
	ctx context.Context,
	source ro.Observable[T],
	onNext func(context.Context, T),
	onError func(context.Context, error),
	onComplete func(context.Context),
) ro.Subscription {
	observer := ro.NewObserverWithContext(onNext, onError, onComplete)
	return source.SubscribeWithContext(ctx, observer)
}
