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

// Package commands provides the concrete pipeline stages of the video edit
// service, implemented as Chain of Responsibility commands. The pipeline
// request flows through the chain's CtxIn/CtxOut piping; everything else a
// stage produces for a later stage is published under the context keys
// defined here.
package commands

// Context keys for cross-stage artifacts. The current video file itself is
// not keyed: it is the chain context's current asset.
const (
	// CtxVideoRecord holds the *model.VideoRecord fetched from the metadata
	// service for the source video.
	CtxVideoRecord = "__VIDEO_RECORD__"
	// CtxActionLog holds the []model.ActionWindow classification of the
	// current asset, published by the cut selector for reuse by the BGM
	// stage's automatic prompt.
	CtxActionLog = "__ACTION_LOG__"
	// CtxIsBlur is set true once the mosaic stage has redacted faces.
	CtxIsBlur = "__IS_BLUR__"
	// CtxThumbnailPath holds the local path of the extracted thumbnail.
	CtxThumbnailPath = "__THUMBNAIL_PATH__"
	// CtxVideoURL and CtxThumbnailURL hold the public URLs of the uploaded
	// render and its thumbnail.
	CtxVideoURL     = "__VIDEO_URL__"
	CtxThumbnailURL = "__THUMBNAIL_URL__"
	// CtxOutputName holds the object name of the uploaded render.
	CtxOutputName = "__OUTPUT_NAME__"
	// CtxResultRecord holds the *model.VideoRecord Spring created for the
	// finished render.
	CtxResultRecord = "__RESULT_RECORD__"
)
