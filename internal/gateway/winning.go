// internal/gateway/winning.go
package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WinningBid handles GET /api/winning/{bidId}. Unlike the other routes this is
// not a raw passthrough: the upstream body is decoded, bid amounts are pushed
// through decimal so float artifacts from the upstream encoder don't leak to
// the board, and the parsed result is re-encoded.
func (g *Gateway) WinningBid(c *gin.Context) {
	setCORS(c)

	target := g.base + "/api/winning/" + c.Param("bidId")
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build upstream request", "details": err.Error()})
		return
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream request failed", "details": err.Error()})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upstream response", "details": err.Error()})
		return
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse upstream response", "details": err.Error()})
		return
	}

	c.JSON(resp.StatusCode, normalizeNumbers(parsed))
}

// normalizeNumbers rewrites every numeric leaf through decimal. Unparseable
// numbers are passed through untouched.
func normalizeNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []interface{}:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if d, err := decimal.NewFromString(val.String()); err == nil {
			return json.Number(d.String())
		}
		return val
	default:
		return v
	}
}
