package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/catalog"
	"github.com/imrishuroy/rental-dispatch/internal/dashboard"
	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/validation"
)

// catalogRoutes maps URL segments to tables.
var catalogRoutes = map[string]catalog.Table{
	"vehicles":  catalog.TableVehicles,
	"inventory": catalog.TableInventory,
	"venues":    catalog.TableVenueDifficulty,
}

// RegisterCatalogRoutes registers list/create/update for every catalog table.
func RegisterCatalogRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	cfg = cfg.withDefaults()

	for segment, table := range catalogRoutes {
		table := table
		api.GET("/"+segment, func(c *gin.Context) {
			rows, err := cfg.Catalog.List(c.Request.Context(), table)
			if err != nil {
				catalogError(c, cfg.Logger, table, err)
				return
			}
			if rows == nil {
				rows = []catalog.Row{}
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "rows": rows, "count": len(rows)})
		})

		api.POST("/"+segment, func(c *gin.Context) {
			row, err := validation.BindRow(c, cfg.Validator, table, false)
			if err != nil {
				return
			}
			stored, err := cfg.Catalog.Insert(c.Request.Context(), table, row)
			if err != nil {
				catalogError(c, cfg.Logger, table, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"success": true, "row": stored})
		})

		api.PUT("/"+segment+"/:id", func(c *gin.Context) {
			row, err := validation.BindRow(c, cfg.Validator, table, true)
			if err != nil {
				return
			}
			stored, err := cfg.Catalog.Update(c.Request.Context(), table, c.Param("id"), row)
			if err != nil {
				catalogError(c, cfg.Logger, table, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "row": stored})
		})
	}
}

// RegisterDashboardRoutes registers the static schedule and analysis data.
func RegisterDashboardRoutes(api *gin.RouterGroup) {
	api.GET("/schedule", func(c *gin.Context) {
		c.JSON(http.StatusOK, dashboard.CurrentSchedule())
	})
	api.GET("/analysis", func(c *gin.Context) {
		c.JSON(http.StatusOK, dashboard.WeeklyAnalysis())
	})
}

func catalogError(c *gin.Context, base *zap.Logger, table catalog.Table, err error) {
	status := backendStatus(err)
	log := requestLogger(c, base)
	if status >= http.StatusInternalServerError {
		log.Error("catalog request failed", zap.String("table", string(table)), zap.Error(err))
	} else {
		log.Warn("catalog request rejected", zap.String("table", string(table)), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func backendStatus(err error) int {
	switch {
	case errors.Is(err, db.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrUnknownTable),
		errors.Is(err, catalog.ErrInvalidColumn),
		errors.Is(err, catalog.ErrNoColumns):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
