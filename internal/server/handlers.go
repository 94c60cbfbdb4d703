package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meal-planner/internal/checkout"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

// Groceries builds and renders grocery lists.
type Groceries interface {
	GroceryList(ctx context.Context, dr planner.DateRange) (shopping.List, error)
	ExportText(ctx context.Context, dr planner.DateRange) (string, error)
	PrintHTML(ctx context.Context, dr planner.DateRange) (string, error)
}

// SessionBuilder creates checkout sessions.
type SessionBuilder interface {
	CreateSession(ctx context.Context, storeID string, items []checkout.Item) (checkout.Session, error)
}

type checkoutSessionRequest struct {
	StoreID string          `json:"storeId" binding:"required,max=100"`
	Items   []checkout.Item `json:"items" binding:"required,min=1,max=400,dive"`
}

// HandleCreateCheckoutSession builds a checkout session for one store.
func HandleCreateCheckoutSession(builder SessionBuilder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
			return
		}

		session, err := builder.CreateSession(c.Request.Context(), req.StoreID, req.Items)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

type groceryListResponse struct {
	shopping.List
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// parseRange reads ?from=&to=, defaulting to next week.
func parseRange(c *gin.Context) (planner.DateRange, bool) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		return planner.WeekOf(time.Now()), true
	}
	dr, err := planner.ParseRange(from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return planner.DateRange{}, false
	}
	return dr, true
}

// HandleGroceryList returns the aggregated list as JSON.
func HandleGroceryList(g Groceries) gin.HandlerFunc {
	return func(c *gin.Context) {
		dr, ok := parseRange(c)
		if !ok {
			return
		}
		list, err := g.GroceryList(c.Request.Context(), dr)
		if err != nil {
			slog.Error("failed to build grocery list", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build grocery list."})
			return
		}
		c.JSON(http.StatusOK, groceryListResponse{List: list, Counts: list.Counts(), Total: list.Total()})
	}
}

// HandleGroceryExport returns the copy-paste text export.
func HandleGroceryExport(g Groceries) gin.HandlerFunc {
	return func(c *gin.Context) {
		dr, ok := parseRange(c)
		if !ok {
			return
		}
		text, err := g.ExportText(c.Request.Context(), dr)
		if err != nil {
			slog.Error("failed to export grocery list", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export grocery list."})
			return
		}
		c.String(http.StatusOK, text)
	}
}

// HandleGroceryPrint returns the printable HTML document.
func HandleGroceryPrint(g Groceries) gin.HandlerFunc {
	return func(c *gin.Context) {
		dr, ok := parseRange(c)
		if !ok {
			return
		}
		html, err := g.PrintHTML(c.Request.Context(), dr)
		if err != nil {
			slog.Error("failed to render grocery list", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render grocery list."})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

// HandleHealth reports process health.
func HandleHealth(dataDir string, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetSysHealth(dataDir, started))
	}
}
