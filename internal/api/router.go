package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-log-analyzer/docs"
	"go-log-analyzer/internal/api/handler"
	"go-log-analyzer/internal/model"
	"go-log-analyzer/pkg/router"
)

// RegisterRoutes wires the API surface onto the router.
func RegisterRoutes(r *router.Router, spec model.RunSpec) {
	handler.Configure(spec)

	r.POST("/api/v1/runs", handler.CreateRun)
	r.GET("/api/v1/runs", handler.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/errors", handler.GetRunErrors)
	r.GET("/api/v1/runs/*/logs", handler.GetRunLogs)
	r.GET("/api/v1/runs/*/progress", handler.GetRunProgress)
	// Generic run route last
	r.GET("/api/v1/runs/*", handler.GetRun)

	r.GET("/api/v1/processed", handler.ListProcessedFiles)
	r.GET("/api/v1/reports", handler.ListReports)
	r.GET("/api/v1/reports/*", handler.DownloadReport)

	r.GET("/swagger/*", func(w http.ResponseWriter, req *http.Request) {
		httpSwagger.WrapHandler(w, req)
	})
}
