// internal/gateway/gateway.go
package gateway

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Gateway re-exposes the upstream auction API under local paths. It is a pure
// stateless forwarder: no retry, no caching, no timeout beyond the shared
// http.Client's.
type Gateway struct {
	base   string
	client *http.Client
}

func New(upstreamBase string, timeout time.Duration) *Gateway {
	return &Gateway{
		base:   strings.TrimRight(upstreamBase, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Register mounts the proxy routes on the router.
func (g *Gateway) Register(r gin.IRouter) {
	proxy := func(c *gin.Context) { g.Proxy(c) }
	r.GET("/api/proxy/*path", proxy)
	r.POST("/api/proxy/*path", proxy)
	r.PUT("/api/proxy/*path", proxy)
	r.DELETE("/api/proxy/*path", proxy)
	r.OPTIONS("/api/proxy/*path", proxy)

	r.POST("/api/vehicle-award/:acNo", g.VehicleAward)
	// PUT only. The original route file also declared an unreachable GET
	// placeholder; that was dead code and is not carried over.
	r.PUT("/api/vehicle-payments-update/:id", g.VehiclePaymentsUpdate)
	r.GET("/api/winning-bid", g.WinningBidByQuery)
	r.GET("/api/winning/:bidId", g.WinningBid)
	r.OPTIONS("/api/vehicle-award/:acNo", g.preflight)
	r.OPTIONS("/api/vehicle-payments-update/:id", g.preflight)
	r.OPTIONS("/api/winning-bid", g.preflight)
	r.OPTIONS("/api/winning/:bidId", g.preflight)
}

// setCORS attaches the static permissive header set every gateway response
// carries.
func setCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// preflight short-circuits OPTIONS: 200, empty body, zero upstream calls.
func (g *Gateway) preflight(c *gin.Context) {
	setCORS(c)
	c.Status(http.StatusOK)
}

func isWriteMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete
}

// forward performs the upstream call and relays status, body and content type
// verbatim. Errors never escape the handler.
func (g *Gateway) forward(c *gin.Context, method, target string) {
	setCORS(c)

	var body io.Reader
	if isWriteMethod(method) {
		body = c.Request.Body
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), method, target, body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build upstream request", "details": err.Error()})
		return
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if isWriteMethod(method) {
		if ct := c.GetHeader("Content-Type"); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Printf("[Gateway] upstream call failed: %s %s: %v", method, target, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream request failed", "details": err.Error()})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upstream response", "details": err.Error()})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, data)
}

// Proxy handles the wildcard passthrough route.
func (g *Gateway) Proxy(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		g.preflight(c)
		return
	}

	path := strings.TrimPrefix(c.Param("path"), "/")
	target := g.base + "/" + path
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}
	g.forward(c, c.Request.Method, target)
}

// VehicleAward maps POST /api/vehicle-award/{acNo} onto the award endpoint.
func (g *Gateway) VehicleAward(c *gin.Context) {
	target := g.base + "/api/nsa-app-vehicle-bid/" + c.Param("acNo") + "/award"
	g.forward(c, http.MethodPost, target)
}

// VehiclePaymentsUpdate maps PUT /api/vehicle-payments-update/{id} onto the
// payments endpoint.
func (g *Gateway) VehiclePaymentsUpdate(c *gin.Context) {
	target := g.base + "/api/nsa-app-vehicle-bid/payments/" + c.Param("id")
	g.forward(c, http.MethodPut, target)
}

// WinningBidByQuery maps GET /api/winning-bid?bidId= onto the winning
// endpoint.
func (g *Gateway) WinningBidByQuery(c *gin.Context) {
	setCORS(c)
	bidID := c.Query("bidId")
	if bidID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bidId is required"})
		return
	}
	g.forward(c, http.MethodGet, g.base+"/api/winning/"+bidID)
}
