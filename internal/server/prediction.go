package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/healthmate/internal/places"
)

type predictionRequest struct {
	Problem string         `json:"problem"`
	Answers map[string]any `json:"answers"`
}

func (h *handlers) prediction(c *gin.Context) {
	var req predictionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Problem) == "" || req.Answers == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing data"})
		return
	}

	res, err := h.Predictor.Predict(c.Request.Context(), req.Problem, req.Answers)
	if err != nil {
		h.Logger.Error("prediction failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) followups(c *gin.Context) {
	var req predictionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Problem) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symptom description required"})
		return
	}

	questions, err := h.Predictor.Followups(c.Request.Context(), req.Problem)
	if err != nil {
		h.Logger.Error("followups failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get follow-ups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"followups": questions})
}

func (h *handlers) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	lat, errLat := coordinate(c.Query("lat"), places.DefaultLat)
	lng, errLng := coordinate(c.Query("lng"), places.DefaultLng)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return
	}

	found, err := h.Places.Search(c.Request.Context(), places.Query{Text: query, Lat: &lat, Lng: &lng})
	if err != nil {
		h.Logger.Error("place search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch places"})
		return
	}
	if found == nil {
		found = []places.Place{}
	}
	c.JSON(http.StatusOK, gin.H{"results": found})
}

func coordinate(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}
