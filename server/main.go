// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the video edit backend server.
//
// The application runs a Gin web server exposing the edit API: submitting
// an edit request, staging target face images for the mosaic stage, and
// uploading source videos either through the server or directly to object
// storage via presigned URLs. The server is instrumented with OpenTelemetry
// for logging, tracing, and metrics.
//
// Edit runs are asynchronous: the submit endpoint accepts the request,
// answers 202, and the pipeline reports its outcome to the device via push
// notification. The same pipeline is also triggered by Pub/Sub messages,
// which SetupListeners wires in the background.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/storycut/edit-service/internal/core/model"
	"github.com/storycut/edit-service/internal/telemetry"
)

// main sets up logging, telemetry, state, routes, and background listeners,
// then serves until interrupted.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("edit-service-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		VideoRouter(apiV1)
		UploadRouter(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// VideoRouter sets up the edit submission endpoint.
//
// POST /videos accepts a JSON edit request, validates it, and starts the
// pipeline in the background. The response is 202: the actual result
// arrives as a push notification and as a new record in the metadata
// service. The bearer token is captured from the Authorization header and
// forwarded to the metadata service for both the fetch and the final
// registration.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.POST("", func(c *gin.Context) {
			var request model.PipelineRequest
			if err := c.ShouldBindJSON(&request); err != nil {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "invalid request body: "+err.Error()))
				return
			}
			if request.VideoID <= 0 {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "videoId is required"))
				return
			}
			if len(request.Images) > model.MaxTargetImages {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "at most 2 target images are allowed"))
				return
			}
			request.AuthToken = bearerToken(c)

			// The run outlives this HTTP exchange. WithoutCancel keeps the
			// trace linkage without tying the pipeline to the request's
			// lifetime.
			runCtx := context.WithoutCancel(c.Request.Context())
			go func() {
				if _, err := state.editService.Edit(runCtx, &request); err != nil {
					slog.ErrorContext(runCtx, "edit run failed", "videoId", request.VideoID, "error", err)
				}
			}()

			c.JSON(http.StatusAccepted, model.NewSuccessEnvelope(http.StatusAccepted, "edit started", gin.H{
				"videoId": request.VideoID,
			}))
		})
	}
}

// UploadRouter sets up the staging and upload endpoints.
//
// This function defines the following endpoints:
//   - POST /uploads/images: stages target face images on local disk and
//     returns their staged paths for use in an edit request.
//   - POST /uploads/videos: uploads a source video through the server into
//     object storage and returns its public URL.
//   - GET /uploads/presigned: mints a presigned PUT URL so large videos can
//     bypass the server entirely.
func UploadRouter(r *gin.RouterGroup) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("/images", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "get form err: "+err.Error()))
				return
			}
			files := form.File["files"]
			if len(files) == 0 || len(files) > model.MaxTargetImages {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "between 1 and 2 images are required"))
				return
			}

			staged := make([]string, 0, len(files))
			for _, file := range files {
				localPath := filepath.Join(state.config.Storage.ImageDir, uuid.NewString()+filepath.Ext(file.Filename))
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.JSON(http.StatusInternalServerError, model.NewErrorEnvelope(http.StatusInternalServerError, "save file err: "+err.Error()))
					return
				}
				staged = append(staged, localPath)
			}
			c.JSON(http.StatusOK, model.NewSuccessEnvelope(http.StatusOK, "images staged", gin.H{"images": staged}))
		})

		uploads.POST("/videos", func(c *gin.Context) {
			file, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "file is required"))
				return
			}
			localPath := filepath.Join(state.config.Storage.VideoDir, uuid.NewString()+filepath.Ext(file.Filename))
			if err := c.SaveUploadedFile(file, localPath); err != nil {
				c.JSON(http.StatusInternalServerError, model.NewErrorEnvelope(http.StatusInternalServerError, "save file err: "+err.Error()))
				return
			}
			defer func() { _ = os.Remove(localPath) }()

			key := "videos/uploads/" + filepath.Base(localPath)
			url, err := state.cloud.ObjectStore.Upload(c.Request.Context(), localPath, key, "video/mp4")
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "video upload failed", "key", key, "error", err)
				c.JSON(http.StatusInternalServerError, model.NewErrorEnvelope(http.StatusInternalServerError, "upload failed"))
				return
			}
			c.JSON(http.StatusOK, model.NewSuccessEnvelope(http.StatusOK, "video uploaded", gin.H{"url": url}))
		})

		uploads.GET("/presigned", func(c *gin.Context) {
			filename := c.Query("filename")
			if filename == "" {
				c.JSON(http.StatusBadRequest, model.NewErrorEnvelope(http.StatusBadRequest, "filename is required"))
				return
			}
			contentType := c.DefaultQuery("contentType", "video/mp4")
			key := "videos/uploads/" + uuid.NewString() + filepath.Ext(filename)

			expires := time.Duration(state.config.Storage.PresignTTLSec) * time.Second
			url, err := state.cloud.ObjectStore.PresignPut(c.Request.Context(), key, contentType, expires)
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "presign failed", "key", key, "error", err)
				c.JSON(http.StatusInternalServerError, model.NewErrorEnvelope(http.StatusInternalServerError, "could not generate upload URL"))
				return
			}
			c.JSON(http.StatusOK, model.NewSuccessEnvelope(http.StatusOK, "upload URL generated", gin.H{
				"uploadUrl": url,
				"objectUrl": state.cloud.ObjectStore.ObjectURL(key),
			}))
		})
	}
}

// bearerToken extracts the raw token from the Authorization header, with or
// without the "Bearer " prefix.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
