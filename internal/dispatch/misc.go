package dispatch

import "context"

func execSwitchLanguage(ctx context.Context, d *Dispatcher, req Request) Result {
	language := req.Entities["language"]
	if language == "" {
		language = "hi"
	}
	return ok(map[string]any{"language": language})
}

func execStartRecording(ctx context.Context, d *Dispatcher, req Request) Result {
	return ok(map[string]any{"recording": true})
}

func execStopRecording(ctx context.Context, d *Dispatcher, req Request) Result {
	return ok(map[string]any{"recording": false})
}
