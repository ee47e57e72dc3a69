package tasks

import "context"

// DispatcherInterface is the preview pipeline as the task layer sees it.
type DispatcherInterface interface {
	Run(ctx context.Context, channelID, text string) string
}

// TaskSchedulerInterface defines the interface for task scheduling
// operations. Used by the API layer to queue background message processing.
// Example usage:
//
//	scheduler := NewScheduler()
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewPreviewMessageTask(channelID, text, dispatcher, replier))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	QueueLength() int
}
