package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/db"
	"github.com/imrishuroy/rental-dispatch/internal/extract"
	"github.com/imrishuroy/rental-dispatch/internal/metrics"
)

const (
	receivedBodyExcerpt = 500
	isoMillis           = "2006-01-02T15:04:05.000Z07:00"
)

// RegisterResultsRoutes registers the callback receivers and the polling endpoint.
func RegisterResultsRoutes(api *gin.RouterGroup, cfg HandlerConfig) {
	cfg = cfg.withDefaults()

	api.POST("/receive-parsed-orders", receiveParsedOrders(cfg))
	api.GET("/receive-parsed-orders", getParsedOrders(cfg))
	api.DELETE("/receive-parsed-orders", clearParsedOrders(cfg))
	api.POST("/zapier-to-supabase", archiveParsedOrders(cfg))
	api.Any("/parse-documents", func(c *gin.Context) {
		c.JSON(http.StatusGone, gin.H{
			"success": false,
			"error":   "This endpoint is deprecated. Document parsing is now handled by Zapier webhook integration.",
			"message": "Please use the Zapier webhook flow instead.",
		})
	})
}

func receiveParsedOrders(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := requestLogger(c, cfg.Logger)
		evict(c, cfg)

		raw, err := readBody(c, cfg.MaxUploadBytes)
		if err != nil {
			metrics.ResultsRejectedTotal.WithLabelValues("body").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		res, err := extract.Extract(raw)
		if errors.Is(err, extract.ErrInvalidJSON) {
			metrics.ResultsRejectedTotal.WithLabelValues("invalid_json").Inc()
			log.Warn("callback body is not JSON", zap.Int("bytes", len(raw)))
			c.JSON(http.StatusBadRequest, gin.H{
				"success":       false,
				"error":         "Invalid JSON in request body",
				"received_body": excerpt(raw, receivedBodyExcerpt),
			})
			return
		}
		if res.SessionDefaulted {
			log.Warn("callback carried no session id, using default", zap.String("session_id", res.SessionID))
		}

		// store even an empty list so the poller can tell the callback arrived
		entry, err := cfg.Store.Put(ctx, res.SessionID, res.Items)
		if err != nil {
			log.Error("store parsed orders", zap.String("session_id", res.SessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		if len(res.Items) == 0 {
			metrics.ResultsRejectedTotal.WithLabelValues("no_items").Inc()
			log.Warn("no items found in callback",
				zap.String("session_id", res.SessionID),
				zap.String("body_type", bodyType(res.Body)))
			c.JSON(http.StatusBadRequest, gin.H{
				"success":       false,
				"error":         "No items found in response",
				"received_data": res.Body.Raw,
				"body_keys":     bodyKeys(res.Body),
				"body_type":     bodyType(res.Body),
			})
			return
		}

		metrics.ResultsReceivedTotal.WithLabelValues(res.Decoder).Inc()
		log.Info("stored parsed orders",
			zap.String("session_id", res.SessionID),
			zap.Int("items_count", len(res.Items)),
			zap.String("decoder", res.Decoder))

		if cfg.Notifier != nil {
			if err := cfg.Notifier.NotifyReceived(ctx, res.SessionID, len(res.Items), entry.ReceivedAt); err != nil {
				log.Warn("notify received results", zap.String("session_id", res.SessionID), zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     fmt.Sprintf("Received %d parsed order(s)", len(res.Items)),
			"session_id":  res.SessionID,
			"items_count": len(res.Items),
			"decoder":     res.Decoder,
		})
	}
}

func getParsedOrders(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := requestLogger(c, cfg.Logger)
		evict(c, cfg)

		sessionID := c.DefaultQuery("session_id", extract.DefaultSessionID)
		if sessionID == "" {
			sessionID = extract.DefaultSessionID
		}

		entry, err := cfg.Store.Get(ctx, sessionID)
		if err != nil {
			log.Error("load parsed orders", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		if entry == nil {
			available, err := cfg.Store.Sessions(ctx)
			if err != nil {
				log.Warn("list sessions", zap.Error(err))
			}
			if available == nil {
				available = []string{}
			}
			c.JSON(http.StatusNotFound, gin.H{
				"success":              false,
				"error":                "No parsed orders found for this session",
				"requested_session_id": sessionID,
				"available_sessions":   available,
			})
			return
		}

		items := entry.Items
		if items == nil {
			items = []json.RawMessage{}
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"items":       items,
			"received_at": entry.ReceivedAt.UTC().Format(isoMillis),
		})
	}
}

func clearParsedOrders(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.DefaultQuery("session_id", extract.DefaultSessionID)
		if sessionID == "" {
			sessionID = extract.DefaultSessionID
		}
		if err := cfg.Store.Delete(c.Request.Context(), sessionID); err != nil {
			requestLogger(c, cfg.Logger).Error("clear parsed orders", zap.String("session_id", sessionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Parsed orders cleared"})
	}
}

func archiveParsedOrders(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := requestLogger(c, cfg.Logger)

		raw, err := readBody(c, cfg.MaxUploadBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		res, err := extract.ExtractLoose(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid JSON in request body"})
			return
		}
		if len(res.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No items found in request"})
			return
		}
		if cfg.Archive == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": db.ErrNotConfigured.Error()})
			return
		}

		rec, err := cfg.Archive.Insert(c.Request.Context(), res.SessionID, res.Items)
		if err != nil {
			log.Error("archive parsed orders", zap.String("session_id", res.SessionID), zap.Error(err))
			c.JSON(backendStatus(err), gin.H{"success": false, "error": err.Error()})
			return
		}
		log.Info("archived parsed orders",
			zap.String("session_id", res.SessionID),
			zap.Int("items_count", len(res.Items)),
			zap.String("id", rec.ID))

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     fmt.Sprintf("Inserted %d items", len(res.Items)),
			"session_id":  res.SessionID,
			"items_count": len(res.Items),
		})
	}
}

func evict(c *gin.Context, cfg HandlerConfig) {
	n, err := cfg.Store.EvictExpired(c.Request.Context())
	if err != nil {
		requestLogger(c, cfg.Logger).Warn("evict expired results", zap.Error(err))
		return
	}
	if n > 0 {
		metrics.ResultsEvictedTotal.Add(float64(n))
		requestLogger(c, cfg.Logger).Debug("evicted expired results", zap.Int("count", n))
	}
}

func readBody(c *gin.Context, limit int64) ([]byte, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return raw, nil
}

// excerpt returns at most n characters of raw.
func excerpt(raw []byte, n int) string {
	s := string(raw)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// bodyType mirrors JavaScript's typeof for a decoded body.
func bodyType(b *extract.Body) string {
	switch b.Kind {
	case extract.KindArray, extract.KindObject, extract.KindNull:
		return "object"
	default:
		return b.Kind
	}
}

// bodyKeys lists object keys, or element indexes for arrays and strings.
func bodyKeys(b *extract.Body) []string {
	switch b.Kind {
	case extract.KindObject:
		return b.Keys()
	case extract.KindArray:
		return indexes(len(b.Array))
	case extract.KindString:
		return indexes(utf8.RuneCountInString(b.Str))
	default:
		return []string{}
	}
}

func indexes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}
