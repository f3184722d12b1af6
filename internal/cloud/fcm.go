// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements push notifications through Firebase Cloud Messaging.
// Notifications are best-effort: a pipeline run that rendered successfully
// must never be reported as failed because the push could not be delivered,
// so send errors are logged and swallowed.
package cloud

import (
	"context"
	"log/slog"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMNotifier delivers completion notifications to the device that submitted
// an edit request.
type FCMNotifier struct {
	client *messaging.Client
}

// NewFCMNotifier initializes the Firebase app from the configured service
// account file and returns a notifier bound to its messaging client.
func NewFCMNotifier(ctx context.Context, cfg *FCM) (*FCMNotifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMNotifier{client: client}, nil
}

// NotifySuccess tells the device its edited video is ready. The new record's
// ID rides in the data payload so the app can deep-link to it.
func (f *FCMNotifier) NotifySuccess(ctx context.Context, deviceToken string, videoID int64, videoName string) {
	f.send(ctx, deviceToken, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: "편집 완료",
			Body:  videoName + " 편집이 완료되었습니다.",
		},
		Data: map[string]string{
			"type":    "edit_complete",
			"videoId": formatID(videoID),
		},
	})
}

// NotifyFailure tells the device the edit could not be completed. The
// message is deliberately generic: stage-level detail goes to the logs, not
// to end users.
func (f *FCMNotifier) NotifyFailure(ctx context.Context, deviceToken string, videoID int64) {
	f.send(ctx, deviceToken, &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: "편집 실패",
			Body:  "영상 편집 중 문제가 발생했습니다. 다시 시도해 주세요.",
		},
		Data: map[string]string{
			"type":    "edit_failed",
			"videoId": formatID(videoID),
		},
	})
}

func (f *FCMNotifier) send(ctx context.Context, deviceToken string, msg *messaging.Message) {
	if deviceToken == "" {
		return
	}
	if _, err := f.client.Send(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to deliver push notification", "error", err)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
