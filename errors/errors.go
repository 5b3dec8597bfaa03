package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidPayload     = fmt.Errorf("invalid event payload")
	ErrUnknownEvent       = fmt.Errorf("unknown event")
	ErrChannelClosed      = fmt.Errorf("event channel closed")
	ErrNoActiveChat       = fmt.Errorf("no active conversation")
	ErrEmptyMessage       = fmt.Errorf("nothing to send")
	ErrUploadFailed       = fmt.Errorf("file upload failed")
	ErrRecordingInFlight  = fmt.Errorf("a recording is already in flight")
	ErrNoRecording        = fmt.Errorf("no recording in flight")
	ErrMicrophoneDenied   = fmt.Errorf("microphone access denied or not available")
	ErrPreviewReleased    = fmt.Errorf("preview already released")
	ErrGroupActionFailed  = fmt.Errorf("group action failed")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrPermissionNotGiven = fmt.Errorf("notification permission not granted")
	ErrServerRejected     = fmt.Errorf("server rejected the request")
)
